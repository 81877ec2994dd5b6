package models

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gorm.io/datatypes"
)

// RawMaterial stores name, stock and unit inside Data.
type RawMaterial struct {
	Base
	Data datatypes.JSON `json:"data"`
}

func (m *RawMaterial) Name() string {
	return gjson.GetBytes(m.Data, "name").String()
}

func (m *RawMaterial) Stock() float64 {
	return gjson.GetBytes(m.Data, "stock").Float()
}

func (m *RawMaterial) Unit() string {
	return gjson.GetBytes(m.Data, "unit").String()
}

// ErrDataNotObject is returned when a JSON document is not an object.
var ErrDataNotObject = errors.New("data must be a JSON object")

// SetStock rewrites the stock value inside Data, keeping every other key.
func (m *RawMaterial) SetStock(stock float64) error {
	doc := []byte(m.Data)
	if len(doc) == 0 {
		doc = []byte("{}")
	}
	data, err := sjson.SetBytes(doc, "stock", stock)
	if err != nil {
		return err
	}
	m.Data = data
	return nil
}

// RawMaterialData builds the Data document of a raw material. Keys in extra
// are kept unless they collide with name, stock or unit.
func RawMaterialData(name string, stock float64, unit string, extra []byte) (datatypes.JSON, error) {
	doc := []byte("{}")
	if len(extra) > 0 && gjson.ParseBytes(extra).Type != gjson.Null {
		if !gjson.ValidBytes(extra) || !gjson.ParseBytes(extra).IsObject() {
			return nil, ErrDataNotObject
		}
		doc = append([]byte(nil), extra...)
	}

	var err error
	for _, kv := range []struct {
		key   string
		value interface{}
	}{{"name", name}, {"stock", stock}, {"unit", unit}} {
		if doc, err = sjson.SetBytes(doc, kv.key, kv.value); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

type RawMaterialUsage struct {
	Base
	OrderID       string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	OrderItemID   string          `gorm:"type:varchar(36);not null;index" json:"order_item_id"`
	ProductID     string          `gorm:"type:varchar(36);not null;index" json:"product_id"`
	RawMaterialID string          `gorm:"type:varchar(36);not null;index" json:"raw_material_id"`
	QuantityUsed  decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity_used"`

	// Relations
	Order       *Order       `gorm:"foreignKey:OrderID" json:"-"`
	OrderItem   *OrderItem   `gorm:"foreignKey:OrderItemID" json:"-"`
	Product     *Product     `gorm:"foreignKey:ProductID" json:"-"`
	RawMaterial *RawMaterial `gorm:"foreignKey:RawMaterialID" json:"raw_material,omitempty"`
}

// DocumentCounter is the last sequence handed out for a numbering scope and period.
type DocumentCounter struct {
	Scope   string `gorm:"type:varchar(50);primaryKey" json:"scope"`
	Period  string `gorm:"type:varchar(20);primaryKey" json:"period"`
	LastSeq int    `gorm:"not null;default:0" json:"last_seq"`
}
