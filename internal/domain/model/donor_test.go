package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reliefworks/donation-service/internal/domain/model"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name      string
		firstName string
		lastName  string
		fallback  string
		expected  string
	}{
		{"full name truncates to initial", "Sarah", "Johnson", "Anonymous", "Sarah J."},
		{"missing first name falls back", "", "Johnson", "Anonymous", "Anonymous"},
		{"whitespace first name falls back", "   ", "Johnson", "Anonymous", "Anonymous"},
		{"missing last name keeps first name", "Sarah", "", "Anonymous", "Sarah"},
		{"ambassador fallback", "", "", "Anonymous Ambassador", "Anonymous Ambassador"},
		{"multibyte last name", "Mei", "李明", "Anonymous", "Mei 李."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, model.DisplayName(tt.firstName, tt.lastName, tt.fallback))
		})
	}
}
