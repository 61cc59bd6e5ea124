package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{name: "daily morning run", schedule: "30 6 * * *", wantErr: false},
		{name: "every six hours", schedule: "0 */6 * * *", wantErr: false},
		{name: "weekdays only", schedule: "30 9 * * 1-5", wantErr: false},
		{name: "empty", schedule: "", wantErr: true},
		{name: "too few fields", schedule: "30 6 *", wantErr: true},
		{name: "nonsense", schedule: "not a schedule", wantErr: true},
		{name: "minute out of range", schedule: "99 6 * * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("Asia/Taipei"))
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.Error(t, ValidateTimezone(""))
	assert.Error(t, ValidateTimezone("Taipei"))
	assert.Error(t, ValidateTimezone("+08:00"))
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, ValidateDuration(10*time.Minute, time.Minute, time.Hour))
	assert.NoError(t, ValidateDuration(time.Minute, time.Minute, time.Hour))
	assert.NoError(t, ValidateDuration(time.Hour, time.Minute, time.Hour))
	assert.Error(t, ValidateDuration(time.Second, time.Minute, time.Hour))
	assert.Error(t, ValidateDuration(2*time.Hour, time.Minute, time.Hour))
	assert.Error(t, ValidateDuration(time.Minute, time.Hour, time.Minute))
}

func TestValidateIntRange(t *testing.T) {
	assert.NoError(t, ValidateIntRange(4, 1, 16))
	assert.NoError(t, ValidateIntRange(1, 1, 16))
	assert.NoError(t, ValidateIntRange(16, 1, 16))
	assert.Error(t, ValidateIntRange(0, 1, 16))
	assert.Error(t, ValidateIntRange(17, 1, 16))
	assert.Error(t, ValidateIntRange(5, 10, 1))
}

func TestValidatePositiveDuration(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Nanosecond))
	assert.NoError(t, ValidatePositiveDuration(10*time.Minute))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.Error(t, ValidatePositiveDuration(-time.Second))
}
