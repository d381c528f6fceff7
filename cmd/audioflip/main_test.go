package main

import "testing"

func TestListenPort(t *testing.T) {
	cases := map[string]int{
		"127.0.0.1:7077": 7077,
		":8080":          8080,
		"[::1]:9000":     9000,
		"localhost":      7077,
		"host:http":      7077,
	}
	for addr, want := range cases {
		if got := listenPort(addr); got != want {
			t.Errorf("listenPort(%q) = %d, want %d", addr, got, want)
		}
	}
}
