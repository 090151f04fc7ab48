package keys

import "testing"

func BenchmarkFor(b *testing.B) {
	b.ReportAllocs()
	var sink Channel
	for i := 0; i < b.N; i++ {
		sink = For("mail")
	}
	_ = sink
}

func BenchmarkBuilders(b *testing.B) {
	cases := []struct {
		name string
		fn   func(string) string
	}{
		{"MessageID", MessageID},
		{"Messages", Messages},
		{"Waiting", Waiting},
		{"Delayed", Delayed},
		{"Reserved", Reserved},
		{"Attempts", Attempts},
		{"MovingLock", MovingLock},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			var s string
			for i := 0; i < b.N; i++ {
				s = c.fn("video-jobs")
			}
			_ = s
		})
	}
}
