package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRushAddress(t *testing.T) {
	tests := []struct {
		province, district string
		want               bool
	}{
		{"Hanoi", "Ba Dinh", true},
		{"Hà Nội", "Hoàn Kiếm", true},
		{"ha noi", "Quận Đống Đa", true},
		{"HANOI", "q. cau giay", true},
		{"Hanoi", "Soc Son", false},
		{"Ho Chi Minh", "Ba Dinh", false},
		{"", "Ba Dinh", false},
	}
	for _, tt := range tests {
		t.Run(tt.province+"/"+tt.district, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRushAddress(tt.province, tt.district))
		})
	}
}

func TestShortageReason(t *testing.T) {
	reason, short := ShortageReason([]StockLine{
		{ProductID: 1, Title: "Book", Requested: 1, Available: 5},
		{ProductID: 2, Title: "Album", Requested: 3, Available: 1},
		{ProductID: 3, Title: "Film", Requested: 2, Available: 0},
	})
	assert.True(t, short)
	assert.Equal(t, "Order automatically rejected due to insufficient stock: Album (requested: 3, available: 1), Film (requested: 2, available: 0)", reason)

	_, short = ShortageReason([]StockLine{{Title: "Book", Requested: 2, Available: 2}})
	assert.False(t, short)
}
