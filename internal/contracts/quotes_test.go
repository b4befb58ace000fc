package contracts

import (
	"errors"
	"testing"
	"time"
)

func TestInterval_Validate(t *testing.T) {
	tests := []struct {
		name     string
		interval Interval
		wantErr  bool
		invalid  bool // expect ErrInvalidInterval
	}{
		{
			name:     "valid one year",
			interval: Interval{Count: 1, Unit: UnitYear},
		},
		{
			name:     "valid thirty days",
			interval: Interval{Count: 30, Unit: UnitDay},
		},
		{
			name:     "zero count",
			interval: Interval{Count: 0, Unit: UnitDay},
			wantErr:  true,
			invalid:  true,
		},
		{
			name:     "negative count",
			interval: Interval{Count: -3, Unit: UnitMonth},
			wantErr:  true,
			invalid:  true,
		},
		{
			name:     "unknown unit",
			interval: Interval{Count: 2, Unit: "fortnight"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.interval.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.invalid && !errors.Is(err, ErrInvalidInterval) {
				t.Errorf("Validate() error = %v, want ErrInvalidInterval", err)
			}
		})
	}
}

func TestParseIntervalUnit(t *testing.T) {
	for _, valid := range []string{"day", "month", "year"} {
		if _, err := ParseIntervalUnit(valid); err != nil {
			t.Errorf("ParseIntervalUnit(%q) failed: %v", valid, err)
		}
	}

	if _, err := ParseIntervalUnit("week"); err == nil {
		t.Error("ParseIntervalUnit(\"week\") should fail, weeks are not a lookback unit")
	}
}

func TestSecurityType_Valid(t *testing.T) {
	for _, valid := range []SecurityType{TypeStock, TypeFund, TypeETF, TypeCertificate} {
		if !valid.Valid() {
			t.Errorf("%q should be a valid security type", valid)
		}
	}

	if SecurityType("bond").Valid() {
		t.Error("\"bond\" should not be a valid security type")
	}
}

func TestDay(t *testing.T) {
	ts := time.Date(2024, 3, 15, 17, 30, 45, 123, time.FixedZone("CET", 3600))
	day := Day(ts)

	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !day.Equal(want) {
		t.Errorf("Day() = %v, want %v", day, want)
	}

	// Already-normalized dates pass through unchanged
	if again := Day(day); !again.Equal(day) {
		t.Errorf("Day() not idempotent: %v != %v", again, day)
	}
}

func TestSeriesKey_String(t *testing.T) {
	key := SeriesKey{ISIN: "DE0005140008", ExchangeID: 4}
	if got := key.String(); got != "DE0005140008@4" {
		t.Errorf("String() = %q, want %q", got, "DE0005140008@4")
	}
}
