package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestParsedLineItem_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		item    ParsedLineItem
		wantErr bool
	}{
		{name: "complete item", item: ParsedLineItem{Description: "Excavate foundations", Qty: fptr(12), Rate: fptr(80), Amount: fptr(960)}},
		{name: "description only", item: ParsedLineItem{Description: "Preliminaries"}},
		{name: "missing description", item: ParsedLineItem{Qty: fptr(1)}, wantErr: true},
		{name: "whitespace description", item: ParsedLineItem{Description: "   "}, wantErr: true},
		{name: "negative qty", item: ParsedLineItem{Description: "Blockwork", Qty: fptr(-3)}, wantErr: true},
		{name: "zero qty ok", item: ParsedLineItem{Description: "Provisional sum", Qty: fptr(0)}},
		{name: "confidence out of range", item: ParsedLineItem{Description: "Roofing", Confidence: fptr(1.5)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.item.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParsedResponseItem_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		item    ParsedResponseItem
		wantErr bool
	}{
		{name: "numeric value", item: ParsedResponseItem{Description: "Excavate foundations", Value: 960.0}},
		{name: "string value", item: ParsedResponseItem{Description: "Scaffolding", Value: "Included"}},
		{name: "nil value", item: ParsedResponseItem{Description: "Dayworks"}},
		{name: "missing description", item: ParsedResponseItem{Value: 100.0}, wantErr: true},
		{name: "negative qty", item: ParsedResponseItem{Description: "Brickwork", Qty: fptr(-1)}, wantErr: true},
		{name: "negative confidence", item: ParsedResponseItem{Description: "Brickwork", Confidence: fptr(-0.2)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.item.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}
