package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/loqalabs/loqa-sign/internal/config"
)

var version = "0.1.0-dev"

const usage = `usage: signctl [-addr URL] <command>

commands:
  state                 print the session state
  clear                 clear the accumulated text
  translate             request a translation of the current text
  letter <L>            append a letter manually
  detection on|off      toggle automatic detection
  camera on|off         toggle the camera
  events [-limit N]     print the session journal
  validate [-file P]    validate a configuration file
  version               print the version`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("signctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	addr := global.String("addr", envOr("LOQA_SIGN_ADDR", "http://localhost:8090"), "signd base URL")
	if err := global.Parse(args); err != nil {
		return 2
	}
	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	c := &client{base: strings.TrimRight(*addr, "/"), http: &http.Client{Timeout: 10 * time.Second}}
	cmd, cmdArgs := rest[0], rest[1:]

	var err error
	switch cmd {
	case "state":
		err = c.do(stdout, http.MethodGet, "/api/state", nil)
	case "clear":
		err = c.do(stdout, http.MethodPost, "/api/clear", nil)
	case "translate":
		err = c.do(stdout, http.MethodPost, "/api/translate", nil)
	case "letter":
		if len(cmdArgs) != 1 {
			fmt.Fprintln(stderr, "expected exactly one letter")
			return 2
		}
		err = c.do(stdout, http.MethodPost, "/api/letters", map[string]string{"letter": cmdArgs[0]})
	case "detection", "camera":
		enabled, ok := parseSwitch(cmdArgs)
		if !ok {
			fmt.Fprintf(stderr, "expected '%s on' or '%s off'\n", cmd, cmd)
			return 2
		}
		err = c.do(stdout, http.MethodPut, "/api/"+cmd, map[string]bool{"enabled": enabled})
	case "events":
		fs := flag.NewFlagSet("events", flag.ContinueOnError)
		fs.SetOutput(stderr)
		limit := fs.Int("limit", 100, "maximum number of entries")
		if err := fs.Parse(cmdArgs); err != nil {
			return 2
		}
		err = c.do(stdout, http.MethodGet, fmt.Sprintf("/api/events?limit=%d", *limit), nil)
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(stderr)
		path := fs.String("file", "loqa-sign.yaml", "Path to configuration file")
		if err := fs.Parse(cmdArgs); err != nil {
			return 2
		}
		if _, err = config.Load(*path); err == nil {
			fmt.Fprintln(stdout, "config valid")
		}
	case "version":
		fmt.Fprintln(stdout, version)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		return 2
	}

	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

type client struct {
	base string
	http *http.Client
}

// do sends body as JSON and copies the indented response to out. Non-2xx
// responses are returned as errors carrying the server's message.
func (c *client) do(out io.Writer, method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contact signd: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		_, err = out.Write(data)
		return err
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(out)
	return err
}

func parseSwitch(args []string) (bool, bool) {
	if len(args) != 1 {
		return false, false
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	}
	return false, false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
