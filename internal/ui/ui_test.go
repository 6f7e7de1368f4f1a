package ui

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		language string
		style    string
		wantErr  bool
	}{
		{"es", "icon", false},
		{"EN", "circle", false},
		{" es ", "Circle", false},

		{"fr", "icon", true},
		{"es", "square", true},
		{"", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.language+"/"+tc.style, func(t *testing.T) {
			_, err := New(tc.language, tc.style, "")
			if (err != nil) != tc.wantErr {
				t.Errorf("New(%q, %q) error = %v, wantErr %v", tc.language, tc.style, err, tc.wantErr)
			}
		})
	}
}

func TestOptionLabel(t *testing.T) {
	es, _ := New("es", "icon", "")
	if got := es.OptionLabel(15); got != "15 minutos" {
		t.Errorf("es label = %q", got)
	}

	en, _ := New("en", "icon", "")
	if got := en.OptionLabel(30); got != "30 minutes" {
		t.Errorf("en label = %q", got)
	}
}

func TestMarkerAppearance(t *testing.T) {
	icon, _ := New("es", "icon", "/static/")
	m := icon.Marker()
	if m.Style != MarkerIcon {
		t.Errorf("style = %q", m.Style)
	}
	if m.IconURL != "/static/metro-icon.svg" {
		t.Errorf("icon url = %q", m.IconURL)
	}
	if m.IconSize != [2]int{24, 24} || m.IconAnchor != [2]int{12, 12} {
		t.Errorf("unexpected icon geometry: %v %v", m.IconSize, m.IconAnchor)
	}

	circle, _ := New("en", "circle", "")
	if c := circle.Marker(); c.Style != MarkerCircle || c.Radius == 0 || c.IconURL != "" {
		t.Errorf("unexpected circle marker: %+v", c)
	}
}
