package cache

import "testing"

func TestParseRedisURL(t *testing.T) {
	opt, err := ParseRedisURL("redis://:secret@localhost:6380/2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "localhost:6380" || opt.Password != "secret" || opt.DB != 2 {
		t.Fatalf("unexpected options: addr=%s db=%d", opt.Addr, opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Fatal("expected no TLS for redis:// scheme")
	}
}

func TestParseRedisURLInsecureTLS(t *testing.T) {
	opt, err := ParseRedisURL("rediss://localhost:6379", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS config")
	}
}

func TestParseRedisURLRejectsGarbage(t *testing.T) {
	if _, err := ParseRedisURL("http://localhost", false); err == nil {
		t.Fatal("expected error for non-redis scheme")
	}
}
