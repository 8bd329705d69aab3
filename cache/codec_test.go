package cache

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type bowler struct {
	ID       string
	Name     string
	Average  float64
	Awards   []string
	Scores   map[string]int
	JoinedAt time.Time
	Captain  *bowler
}

func TestCodecs_RoundTrip(t *testing.T) {
	original := bowler{
		ID:       "b-1",
		Name:     "Ada",
		Average:  212.5,
		Awards:   []string{"perfect game", "league champion"},
		Scores:   map[string]int{"2023": 198, "2024": 212},
		JoinedAt: time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC),
		Captain:  &bowler{ID: "b-0", Name: "Grace"},
	}

	for _, codec := range []Codec{NewMsgpackCodec(), NewJSONCodec()} {
		t.Run(codec.Name(), func(t *testing.T) {
			data, err := codec.Marshal(original)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}

			var decoded bowler
			if err := codec.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}

			if diff := cmp.Diff(original, decoded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodecs_RejectCorruptPayload(t *testing.T) {
	for _, codec := range []Codec{NewMsgpackCodec(), NewJSONCodec()} {
		t.Run(codec.Name(), func(t *testing.T) {
			var decoded bowler
			if err := codec.Unmarshal([]byte{0xc1, 0xff, 0x00}, &decoded); err == nil {
				t.Error("expected error decoding corrupt payload")
			}
		})
	}
}

func TestCodecByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "json", want: "json"},
		{name: "msgpack", want: "msgpack"},
		{name: "", want: "msgpack"},
		{name: "gob", want: "msgpack"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodecByName(tt.name).Name(); got != tt.want {
				t.Errorf("CodecByName(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}
