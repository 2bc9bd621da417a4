package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"auditserve/policy"
)

const (
	defaultHost = "localhost:8000"

	proto = "http://"
)

var (
	host = flag.String("h", defaultHost, "host:port of the running file server")

	c = &http.Client{Timeout: 10 * time.Second}
)

// probe requests one path and checks the cache headers against the
// policy the path should carry.
func probe(path string) bool {
	resp, err := c.Get(proto + *host + path)
	if err != nil {
		fmt.Println("An error occurred while processing the request: ", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	want := policy.ForPath(path)
	gotCacheControl := resp.Header.Get("Cache-Control")
	gotVary := resp.Header.Get("Vary")
	gotOrigin := resp.Header.Get("Access-Control-Allow-Origin")

	fmt.Printf("%s -> %d\n", path, resp.StatusCode)
	fmt.Printf("  Cache-Control: %q\n", gotCacheControl)
	fmt.Printf("  Vary: %q\n", gotVary)
	fmt.Printf("  Access-Control-Allow-Origin: %q\n", gotOrigin)
	if tag := resp.Header.Get("ETag"); tag != "" {
		fmt.Printf("  ETag: %s\n", tag)
	}

	ok := gotCacheControl == want.CacheControl &&
		gotVary == want.Vary &&
		gotOrigin == policy.AllowAnyOrigin
	if ok {
		fmt.Printf("  headers match the %s policy\n", want.Class())
	} else {
		fmt.Printf("  MISMATCH: want Cache-Control %q, Vary %q\n", want.CacheControl, want.Vary)
	}

	return ok
}

func main() {
	flag.Parse()

	if *host == "" {
		fmt.Println("Host is not defined!")
		flag.Usage()
		return
	}

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"/"}
	}

	allOk := true
	for _, p := range paths {
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if !probe(p) {
			allOk = false
		}
	}
	if !allOk {
		os.Exit(1)
	}
}
