package normalize

import "testing"

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"24h passthrough", "20:50", "20:50"},
		{"24h single digit hour", "8:05", "08:05"},
		{"24h fullwidth colon", "20：50", "20:50"},
		{"24h dot separator", "20.50", "20:50"},
		{"compact 4-digit", "2050", "20:50"},
		{"am", "AM 7:03", "07:03"},
		{"am lowercase", "am 7:03", "07:03"},
		{"am noon wraps to zero", "AM 12:15", "00:15"},
		{"pm", "PM 2:05", "14:05"},
		{"pm noon stays noon", "PM 12:30", "12:30"},
		{"cjk afternoon", "下午 02:05", "14:05"},
		{"cjk morning", "上午 08:50", "08:50"},
		{"cjk evening", "晚上 10:00", "22:00"},
		{"cjk noon", "中午 12:00", "12:00"},
		{"fullwidth space", "下午　02:05", "14:05"},
		{"out of range clamps", "25:99", "23:59"},
		{"unrecognized passes through", "half past nine", "half past nine"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTime(tt.input); got != tt.want {
				t.Errorf("NormalizeTime(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	hh, mm, ok := ParseTime("下午 02:05")
	if !ok || hh != 14 || mm != 5 {
		t.Errorf("ParseTime(下午 02:05) = (%d, %d, %v), want (14, 5, true)", hh, mm, ok)
	}

	if _, _, ok := ParseTime("noonish"); ok {
		t.Error("ParseTime should reject unrecognized input")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantY   int
		wantM   int
		wantD   int
		wantErr bool
	}{
		{"dashes", "1990-02-03", 1990, 2, 3, false},
		{"slashes", "1990/02/03", 1990, 2, 3, false},
		{"dots", "1990.2.3", 1990, 2, 3, false},
		{"two components", "1990-02", 0, 0, 0, true},
		{"non numeric", "199O-02-03", 0, 0, 0, true},
		{"zero component", "1990-00-03", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, m, d, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q): %v", tt.input, err)
			}
			if y != tt.wantY || m != tt.wantM || d != tt.wantD {
				t.Errorf("ParseDate(%q) = (%d, %d, %d), want (%d, %d, %d)",
					tt.input, y, m, d, tt.wantY, tt.wantM, tt.wantD)
			}
		})
	}
}
