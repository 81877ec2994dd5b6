package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestRawMaterialSetStockKeepsOtherKeys(t *testing.T) {
	m := &RawMaterial{Data: datatypes.JSON(`{"name":"Resin","supplier":{"code":"R-7"},"stock":520,"unit":"kg"}`)}

	require.NoError(t, m.SetStock(495.5))
	assert.JSONEq(t, `{"name":"Resin","supplier":{"code":"R-7"},"stock":495.5,"unit":"kg"}`, string(m.Data))
	assert.Equal(t, `{"name":"Resin","supplier":{"code":"R-7"},"stock":495.5,"unit":"kg"}`, string(m.Data), "key order is kept")
	assert.Equal(t, 495.5, m.Stock())
}

func TestRawMaterialSetStockOnEmptyData(t *testing.T) {
	m := &RawMaterial{}
	require.NoError(t, m.SetStock(3))
	assert.JSONEq(t, `{"stock":3}`, string(m.Data))
}

func TestRawMaterialData(t *testing.T) {
	data, err := RawMaterialData("Steel", 2000, "kg", []byte(`{"grade":"S355","name":"ignored"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"grade":"S355","name":"Steel","stock":2000,"unit":"kg"}`, string(data))

	data, err = RawMaterialData("Steel", 1, "kg", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Steel","stock":1,"unit":"kg"}`, string(data))

	data, err = RawMaterialData("Steel", 1, "kg", []byte(`null`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Steel","stock":1,"unit":"kg"}`, string(data))

	_, err = RawMaterialData("Steel", 1, "kg", []byte(`["grade"]`))
	assert.ErrorIs(t, err, ErrDataNotObject)
}
