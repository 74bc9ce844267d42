package model

// Setting is one key-value application setting.
// ValueType tells the UI how to parse Value: string, boolean, number, array or json.
type Setting struct {
	Key         string  `json:"key" db:"key"`
	Value       string  `json:"value" db:"value"`
	ValueType   string  `json:"valueType" db:"value_type"`
	Category    string  `json:"category" db:"category"`
	Description *string `json:"description,omitempty" db:"description"`
	CreatedAt   string  `json:"createdAt" db:"created_at"`
	UpdatedAt   string  `json:"updatedAt" db:"updated_at"`
}

// NewSetting is the input for creating a setting.
type NewSetting struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	ValueType   string  `json:"valueType"`
	Category    string  `json:"category"`
	Description *string `json:"description,omitempty"`
}

// UpdateSetting replaces a setting's value.
type UpdateSetting struct {
	Value string `json:"value"`
}

// UpsertOptions supplies the metadata needed when an upsert has to create.
type UpsertOptions struct {
	ValueType   string `json:"valueType"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}
