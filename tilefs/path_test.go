package tilefs

import (
	"errors"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    Path
		wantErr error
	}{
		{in: "/", want: Path{Depth: DepthRoot}},
		{in: "/3", want: Path{Depth: DepthZoom, Zoom: 3}},
		{in: "/3/", want: Path{Depth: DepthZoom, Zoom: 3}},
		{in: "/3/x", want: Path{Depth: DepthZoom, Zoom: 3}},
		{in: "/3/5", want: Path{Depth: DepthColumn, Zoom: 3, Column: 5}},
		{in: "/3/5/2.png", want: Path{Depth: DepthTile, Zoom: 3, Column: 5, Row: 2, Ext: "png"}},
		{in: "/3/5/2", want: Path{Depth: DepthTile, Zoom: 3, Column: 5, Row: 2}},
		{in: "/3/5/2.png/", want: Path{Depth: DepthTile, Zoom: 3, Column: 5, Row: 2, Ext: "png"}},
		{in: "/3/5/abc", want: Path{Depth: DepthColumn, Zoom: 3, Column: 5}},
		{in: "/abc", want: Path{Depth: DepthRoot}},
		{in: "/-1", want: Path{Depth: DepthRoot}},
		{in: "/+1", want: Path{Depth: DepthRoot}},
		{in: "/01", want: Path{Depth: DepthRoot}},
		{in: "/3/05", want: Path{Depth: DepthZoom, Zoom: 3}},
		{in: "/3/5/002.png", want: Path{Depth: DepthColumn, Zoom: 3, Column: 5}},
		{in: "/0/0/0.tar.gz", want: Path{Depth: DepthTile, Ext: "tar.gz"}},
		{in: "", wantErr: ErrMalformedPath},
		{in: "3/5/2.png", wantErr: ErrMalformedPath},
		{in: "/31", wantErr: ErrOutOfRange},
		{in: "/1/2", wantErr: ErrOutOfRange},
		{in: "/1/1/2.png", wantErr: ErrOutOfRange},
		{in: "/3/5/2.png/extra", wantErr: ErrTrailingComponent},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePath(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePath(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPathStringRoundTrip(t *testing.T) {
	for _, in := range []string{"/", "/0", "/4/9", "/4/9/15.pbf", "/4/9/15"} {
		p, err := ParsePath(in)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", in, err)
		}
		if got := p.String(); got != in {
			t.Errorf("String() = %q, want %q", got, in)
		}
	}
}

func TestPathChild(t *testing.T) {
	root := Path{Depth: DepthRoot}

	zoom, err := root.Child("2")
	if err != nil {
		t.Fatal(err)
	}
	if zoom.Depth != DepthZoom || zoom.Zoom != 2 {
		t.Fatalf("root.Child(\"2\") = %+v", zoom)
	}

	col, err := zoom.Child("3")
	if err != nil {
		t.Fatal(err)
	}
	tile, err := col.Child(TileName(1, "png"))
	if err != nil {
		t.Fatal(err)
	}
	if tile.String() != "/2/3/1.png" {
		t.Errorf("tile path = %q", tile)
	}
}

func TestDepthString(t *testing.T) {
	names := map[Depth]string{
		DepthRoot:   "root",
		DepthZoom:   "zoom-dir",
		DepthColumn: "column-dir",
		DepthTile:   "tile-file",
		Depth(9):    "Depth(9)",
	}
	for d, want := range names {
		if got := d.String(); got != want {
			t.Errorf("Depth(%d).String() = %q, want %q", int(d), got, want)
		}
	}
}
