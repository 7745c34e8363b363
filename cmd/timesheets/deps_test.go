package main

import (
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestAsynqRedisOpt(t *testing.T) {
	tests := []struct {
		url      string
		addr     string
		username string
		password string
		db       int
		tls      bool
	}{
		{"redis://localhost:6379/0", "localhost:6379", "", "", 0, false},
		{"redis://:pw@cache:6379/1", "cache:6379", "", "pw", 1, false},
		{"rediss://worker:pw@cache.internal:6380/2", "cache.internal:6380", "worker", "pw", 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			opt, err := redis.ParseURL(tt.url)
			if err != nil {
				t.Fatal(err)
			}
			got := asynqRedisOpt(opt)
			if got.Addr != tt.addr || got.Username != tt.username || got.Password != tt.password || got.DB != tt.db {
				t.Errorf("got addr=%q user=%q password=%q db=%d", got.Addr, got.Username, got.Password, got.DB)
			}
			if (got.TLSConfig != nil) != tt.tls {
				t.Errorf("TLSConfig set = %v, want %v", got.TLSConfig != nil, tt.tls)
			}
		})
	}
}
