package validator

import (
	"testing"
	"time"

	"portbuoy/pkg/logger"
	"portbuoy/pkg/model"
)

func newTestValidator() *SlotValidator {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewSlotValidator(log)
}

func TestValidateSlot(t *testing.T) {
	v := newTestValidator()
	base := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		slot      *model.Slot
		wantError bool
	}{
		{
			name: "valid slot",
			slot: &model.Slot{
				StartTime: base,
				EndTime:   base.Add(time.Hour),
				MaxTrucks: 10,
			},
			wantError: false,
		},
		{
			name: "end before start",
			slot: &model.Slot{
				StartTime: base,
				EndTime:   base.Add(-time.Hour),
				MaxTrucks: 10,
			},
			wantError: true,
		},
		{
			name: "end equals start",
			slot: &model.Slot{
				StartTime: base,
				EndTime:   base,
				MaxTrucks: 10,
			},
			wantError: true,
		},
		{
			name: "zero capacity",
			slot: &model.Slot{
				StartTime: base,
				EndTime:   base.Add(time.Hour),
				MaxTrucks: 0,
			},
			wantError: true,
		},
		{
			name: "negative capacity",
			slot: &model.Slot{
				StartTime: base,
				EndTime:   base.Add(time.Hour),
				MaxTrucks: -3,
			},
			wantError: true,
		},
		{
			name: "capacity above ceiling",
			slot: &model.Slot{
				StartTime: base,
				EndTime:   base.Add(time.Hour),
				MaxTrucks: 501,
			},
			wantError: true,
		},
		{
			name: "window longer than a day",
			slot: &model.Slot{
				StartTime: base,
				EndTime:   base.Add(25 * time.Hour),
				MaxTrucks: 10,
			},
			wantError: true,
		},
		{
			name: "missing start time",
			slot: &model.Slot{
				EndTime:   base.Add(time.Hour),
				MaxTrucks: 10,
			},
			wantError: true,
		},
		{
			name: "negative booked count",
			slot: &model.Slot{
				StartTime:   base,
				EndTime:     base.Add(time.Hour),
				MaxTrucks:   10,
				BookedCount: -1,
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.slot)
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
