package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeLineIncrementsMatchingLine(t *testing.T) {
	ten := decimal.NewFromInt(10)
	lines := MergeLine(nil, 2, "Burger", decimal.NewFromInt(8))
	lines = MergeLine(lines, 1, "Pizza (Small)", ten)
	lines = MergeLine(lines, 2, "Burger", decimal.NewFromInt(8))

	require.Len(t, lines, 2)
	assert.Equal(t, "Burger", lines[0].Name)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestMergeLineKeepsDifferentOptionsApart(t *testing.T) {
	lines := MergeLine(nil, 1, "Pizza (Small)", decimal.NewFromInt(10))
	lines = MergeLine(lines, 1, "Pizza (Large)", decimal.NewFromInt(15))
	assert.Len(t, lines, 2)
}

func TestMergeLineDoesNotMutateInput(t *testing.T) {
	orig := []OrderLine{{ItemID: 2, Name: "Burger", Price: decimal.NewFromInt(8), Quantity: 1}}
	_ = MergeLine(orig, 2, "Burger", decimal.NewFromInt(8))
	assert.Equal(t, 1, orig[0].Quantity)
}

func TestOrderTotal(t *testing.T) {
	lines := []OrderLine{
		{ItemID: 2, Name: "Burger", Price: decimal.NewFromInt(8), Quantity: 2},
		{ItemID: 5, Name: "Soda", Price: decimal.RequireFromString("2.5"), Quantity: 1},
	}
	assert.True(t, OrderTotal(lines).Equal(decimal.RequireFromString("18.5")))
	assert.True(t, OrderTotal(nil).IsZero())
}
