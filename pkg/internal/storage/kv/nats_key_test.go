package kv

import "testing"

// NATS KV 只接受 [-/_=.a-zA-Z0-9] 内的键字符，
// 业务键（带冒号、可能带 IPv6 地址）必须经编码后才能落到后端.
func TestEncodeNATSKey(t *testing.T) {
	cases := map[string]string{
		"share:v1:482913":               "share=3Av1=3A482913",
		"ratelimit:share:1.2.3.4:27901": "ratelimit=3Ashare=3A1.2.3.4=3A27901",
		"plain-key_ok./":                "plain-key_ok./",
		"a=b":                           "a=3Db",
	}

	for in, want := range cases {
		got := encodeNATSKey(in)
		if got != want {
			t.Fatalf("encode %q: expected %q, got %q", in, want, got)
		}

		for i := 0; i < len(got); i++ {
			if got[i] != '=' && !validNATSKeyChar(got[i]) {
				t.Fatalf("encode %q produced invalid byte %q", in, got[i])
			}
		}

		if back := decodeNATSKey(got); back != in {
			t.Fatalf("decode %q: expected %q, got %q", got, in, back)
		}
	}
}

func TestEncodeNATSKeyIPv6RoundTrip(t *testing.T) {
	key := "ratelimit:retrieve:2001:db8::1:41530"

	enc := encodeNATSKey(key)

	for i := 0; i < len(enc); i++ {
		if enc[i] != '=' && !validNATSKeyChar(enc[i]) {
			t.Fatalf("invalid byte %q in %q", enc[i], enc)
		}
	}

	if got := decodeNATSKey(enc); got != key {
		t.Fatalf("round trip mismatch: %q -> %q -> %q", key, enc, got)
	}
}

// 编码逐字节进行，明文前缀关系必须在编码空间保持，否则 List 的前缀过滤会漏键.
func TestEncodeNATSKeyPreservesPrefix(t *testing.T) {
	prefix := encodeNATSKey("share:v1:")
	full := encodeNATSKey("share:v1:482913")

	if len(full) < len(prefix) || full[:len(prefix)] != prefix {
		t.Fatalf("expected %q to be a prefix of %q", prefix, full)
	}
}
