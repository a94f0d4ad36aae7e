package postgres

import (
	"database/sql"
	"fmt"

	"github.com/bytedance/sonic"
)

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullInt64ToIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	out := int(v.Int64)
	return &out
}

func nullableString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func encodeJSON(v any) (string, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(raw), nil
}

func decodeJSON(raw []byte, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
