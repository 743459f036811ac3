package types

// JSONMap is a free-form jsonb payload stored via the gorm json serializer.
type JSONMap map[string]any
