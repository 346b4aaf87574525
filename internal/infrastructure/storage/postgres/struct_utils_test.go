package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gasflow/internal/core/entity"
	"gasflow/internal/core/id"
	"gasflow/internal/core/types"
)

type mockDocument struct {
	entity.BaseDocument
	Number     string         `db:"number" json:"number"`
	QuantityKg types.Quantity `db:"quantity_kg" json:"quantityKg"`
	Internal   string         `db:"-" json:"-"`
	NoTag      string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockDocument]()

	expectedCols := []string{
		"id", "tenant_id", "deletion_mark", "version",
		"created_at", "updated_at", "created_by", "updated_by",
		"number", "quantity_kg",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}

	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "Internal")
	assert.NotContains(t, cols, "NoTag")
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	tenantID := id.New()

	doc := mockDocument{
		BaseDocument: entity.BaseDocument{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				TenantID:     tenantID,
				DeletionMark: true,
				Version:      5,
			},
			CreatedAt: now,
			UpdatedAt: now,
			CreatedBy: "user-1",
		},
		Number:     "SB-2026-00001",
		QuantityKg: types.NewQuantityFromFloat64(100),
		Internal:   "hidden",
	}

	m := StructToMap(doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, tenantID, m["tenant_id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "user-1", m["created_by"])
	assert.Equal(t, "SB-2026-00001", m["number"])
	assert.Equal(t, types.NewQuantityFromFloat64(100), m["quantity_kg"])

	_, hasHidden := m["-"]
	assert.False(t, hasHidden)
}

func TestStructToMap_PointerAndNonStruct(t *testing.T) {
	doc := &mockDocument{Number: "SB-2026-00002"}
	m := StructToMap(doc)
	assert.Equal(t, "SB-2026-00002", m["number"])

	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("text"))
}
