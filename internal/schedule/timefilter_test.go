package schedule

import (
	"reflect"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in     string
		want   Period
		wantOK bool
	}{
		{"", PeriodAny, true},
		{"  ", PeriodAny, true},
		{"AM", PeriodAM, true},
		{"am", PeriodAM, true},
		{"Pm", PeriodPM, true},
		{"noon", PeriodAny, false},
	}
	for _, tt := range tests {
		got, ok := ParsePeriod(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParsePeriod(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFilterByPeriod(t *testing.T) {
	morning := &doctor.Doctor{Name: "morning", AvailableTimes: []string{"09:00-10:00", "11:00-12:00"}}
	evening := &doctor.Doctor{Name: "evening", AvailableTimes: []string{"12:00-13:00", "18:00-19:00"}}
	both := &doctor.Doctor{Name: "both", AvailableTimes: []string{"11:59-12:30", "15:00-16:00"}}
	broken := &doctor.Doctor{Name: "broken", AvailableTimes: []string{"xx:00-10:00", ""}}
	none := &doctor.Doctor{Name: "none"}
	all := []*doctor.Doctor{morning, evening, both, broken, none}

	names := func(ds []*doctor.Doctor) []string {
		out := []string{}
		for _, d := range ds {
			out = append(out, d.Name)
		}
		return out
	}

	if got := names(FilterByPeriod(all, PeriodAM)); !reflect.DeepEqual(got, []string{"morning", "both"}) {
		t.Errorf("AM filter got %v", got)
	}
	if got := names(FilterByPeriod(all, PeriodPM)); !reflect.DeepEqual(got, []string{"evening", "both"}) {
		t.Errorf("PM filter got %v", got)
	}
	if got := FilterByPeriod(all, PeriodAny); len(got) != len(all) {
		t.Errorf("blank selector should pass everything, got %d", len(got))
	}
}

func TestFilterSlots(t *testing.T) {
	slots := []string{"08:00-09:00", "bad", "12:00-13:00", "23:00-23:30"}

	if got := FilterSlots(slots, PeriodAM); !reflect.DeepEqual(got, []string{"08:00-09:00"}) {
		t.Errorf("AM slots got %v", got)
	}
	if got := FilterSlots(slots, PeriodPM); !reflect.DeepEqual(got, []string{"12:00-13:00", "23:00-23:30"}) {
		t.Errorf("PM slots got %v", got)
	}
	if !HasSlotIn(slots, PeriodPM) || HasSlotIn([]string{"bad"}, PeriodAM) {
		t.Error("HasSlotIn mismatch")
	}
}
