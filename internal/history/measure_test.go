package history

import (
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/ups-monitor/internal/snapshot"
)

func TestParseMeasure(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"230.0", 230.0, false},
		{"230.0 V", 230.0, false},
		{"  80 %", 80, false},
		{"100", 100, false},
		{"-1.5", -1.5, false},
		{"", 0, true},
		{"   ", 0, true},
		{"abc", 0, true},
		{"V 230", 0, true},
		{"nan", 0, true},
		{"NaN V", 0, true},
		{"inf", 0, true},
		{"-Inf V", 0, true},
		{"Infinity", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseMeasure(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMeasure(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrBadMeasure) {
				t.Errorf("error = %v, want ErrBadMeasure", err)
			}
			if got != tt.want {
				t.Errorf("ParseMeasure(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMeasureOrZero(t *testing.T) {
	if got := MeasureOrZero("abc"); got != 0 {
		t.Errorf("MeasureOrZero(abc) = %v, want 0", got)
	}
	if got := MeasureOrZero("nan"); got != 0 {
		t.Errorf("MeasureOrZero(nan) = %v, want 0", got)
	}
	if got := MeasureOrZero("+Inf"); got != 0 {
		t.Errorf("MeasureOrZero(+Inf) = %v, want 0", got)
	}
	if got := MeasureOrZero("231.4 V"); got != 231.4 {
		t.Errorf("MeasureOrZero(231.4 V) = %v, want 231.4", got)
	}
}

func TestRecord_Passes(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"both zero", Record{InputVoltage: 0, BatteryCharge: 0}, false},
		{"voltage only", Record{InputVoltage: 230}, true},
		{"charge only", Record{BatteryCharge: 50}, true},
		{"both set", Record{InputVoltage: 230, BatteryCharge: 100}, true},
		{"negative", Record{InputVoltage: -1, BatteryCharge: -1}, false},
	}
	for _, tt := range tests {
		if got := tt.rec.Passes(); got != tt.want {
			t.Errorf("%s: Passes() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRecordFromDevice(t *testing.T) {
	at := time.Unix(1700000000, 999_000_000)

	t.Run("full device", func(t *testing.T) {
		rec := RecordFromDevice(snapshot.DeviceSnapshot{
			DeviceID: "ups1",
			Variables: map[string]string{
				VarInputVoltage:  "230.0",
				VarBatteryCharge: "80",
				VarStatus:        "OL",
			},
		}, at)

		want := Record{Timestamp: 1700000000, DeviceID: "ups1", InputVoltage: 230, BatteryCharge: 80, Status: "OL"}
		if rec != want {
			t.Errorf("RecordFromDevice() = %+v, want %+v", rec, want)
		}
	})

	t.Run("malformed and missing values", func(t *testing.T) {
		rec := RecordFromDevice(snapshot.DeviceSnapshot{
			DeviceID:  "ups2",
			Variables: map[string]string{VarInputVoltage: "abc"},
		}, at)

		if rec.InputVoltage != 0 || rec.BatteryCharge != 0 {
			t.Errorf("values = %v/%v, want 0/0", rec.InputVoltage, rec.BatteryCharge)
		}
		if rec.Status != DefaultStatus {
			t.Errorf("Status = %q, want %q", rec.Status, DefaultStatus)
		}
		if rec.Passes() {
			t.Error("all-zero record should not pass the noise filter")
		}
	})
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		raw     string
		want    Period
		seconds int64
	}{
		{"1d", PeriodDay, 86400},
		{"1w", PeriodWeek, 604800},
		{"1m", PeriodMonth, 2592000},
		{"", PeriodDay, 86400},
		{"bogus", PeriodDay, 86400},
		{"1D", PeriodDay, 86400},
	}
	for _, tt := range tests {
		p := ParsePeriod(tt.raw)
		if p != tt.want || p.Seconds() != tt.seconds {
			t.Errorf("ParsePeriod(%q) = %s (%ds), want %s (%ds)", tt.raw, p, p.Seconds(), tt.want, tt.seconds)
		}
	}

	now := time.Unix(1_000_000, 0)
	if got := PeriodWeek.Since(now); got != 1_000_000-604800 {
		t.Errorf("PeriodWeek.Since() = %d", got)
	}
}
