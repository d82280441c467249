package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/passerby/internal/api"
	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/coordinator"
	"github.com/smokyabdulrahman/passerby/internal/display"
	"github.com/smokyabdulrahman/passerby/internal/geo"
	"github.com/smokyabdulrahman/passerby/internal/ticker"
)

func TestMain(m *testing.M) {
	display.SetEnabled(false)
	os.Exit(m.Run())
}

// 12:40 UTC: Dhuhr (12:13) is past its grace window, Asr (15:02) is next.
var testNow = time.Date(2026, 2, 28, 12, 40, 0, 0, time.UTC)

func sampleResponse() api.Response {
	return api.Response{
		Code:   200,
		Status: "OK",
		Data: api.Data{
			Timings: api.Timings{
				Fajr:     "05:17",
				Sunrise:  "06:48",
				Dhuhr:    "12:13",
				Asr:      "15:02",
				Sunset:   "17:39",
				Maghrib:  "17:39",
				Isha:     "19:10",
				Imsak:    "05:07",
				Midnight: "00:14",
			},
			Date: api.DateInfo{
				Readable:  "28 Feb 2026",
				Gregorian: api.GregorianDate{Day: "28", Month: api.GregorianMonth{Number: 2, En: "February"}, Year: "2026"},
				Hijri:     api.HijriDate{Day: "10", Month: api.HijriMonth{Number: 9, En: "Ramaḍān"}, Year: "1447"},
			},
			Meta: api.Meta{Timezone: "UTC"},
		},
	}
}

// fixedClock reports testNow but ticks in real time.
type fixedClock struct{}

func (fixedClock) Now() time.Time                          { return testNow }
func (fixedClock) NewTicker(d time.Duration) ticker.Ticker { return ticker.RealClock{}.NewTicker(d) }

// testEnv wires the CLI to httptest servers standing in for the timings,
// geolocation and reverse geocoding APIs.
type testEnv struct {
	deps     deps
	cacheDir string
	cfgPath  string

	mu       sync.Mutex
	requests []url.Values

	geoOK bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)

	env := &testEnv{
		cacheDir: t.TempDir(),
		cfgPath:  filepath.Join(cfgHome, "passerby", "config.json"),
	}

	timings := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		env.requests = append(env.requests, r.URL.Query())
		env.mu.Unlock()

		if r.URL.Query().Get("city") == "Atlantis" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":400,"status":"Bad Request","data":"Unable to find city"}`))
			return
		}
		json.NewEncoder(w).Encode(sampleResponse())
	}))
	t.Cleanup(timings.Close)

	ipapi := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !env.geoOK {
			w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
			return
		}
		w.Write([]byte(`{"status":"success","lat":21.4225,"lon":39.8262,"city":"Mecca","country":"Saudi Arabia","timezone":"Asia/Riyadh"}`))
	}))
	t.Cleanup(ipapi.Close)

	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{"city":"Mecca","country":"Saudi Arabia","country_code":"sa"}}`))
	}))
	t.Cleanup(nominatim.Close)

	env.deps = deps{
		configPath: func() (string, error) { return env.cfgPath, nil },
		envFiles:   []string{filepath.Join(cfgHome, "missing.env")},
		now:        func() time.Time { return testNow },
		clock:      fixedClock{},
		timings: func(log zerolog.Logger) coordinator.Timings {
			c := api.NewClient(log)
			c.BaseURL = timings.URL
			return c
		},
		locator: func(c geo.PositionCache, log zerolog.Logger) coordinator.Geolocator {
			l := geo.NewLocator(nil, log)
			l.URL = ipapi.URL
			return l
		},
		reverser: func(log zerolog.Logger) coordinator.ReverseGeocoder {
			r := geo.NewReverser(log)
			r.BaseURL = nominatim.URL
			return r
		},
	}
	return env
}

func (e *testEnv) run(ctx context.Context, args ...string) (string, string, error) {
	cmd := newRootCmd("test", e.deps)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append(args, "--cache-dir", e.cacheDir))
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := e.run(context.Background(), args...)
	if err != nil {
		t.Fatalf("%v failed: %v\nstderr: %s", args, err, errOut)
	}
	return out
}

func (e *testEnv) lastRequest(t *testing.T) url.Values {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.requests) == 0 {
		t.Fatal("no timings request was made")
	}
	return e.requests[len(e.requests)-1]
}

// ---------------------------------------------------------------------------
// binary
// ---------------------------------------------------------------------------

// buildBinary compiles the passerby binary to a temp directory for testing.
func buildBinary(t *testing.T, ldflags string) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "passerby")

	args := []string{"build"}
	if ldflags != "" {
		args = append(args, "-ldflags", ldflags)
	}
	args = append(args, "-o", binPath, "../../cmd/passerby")

	cmd := exec.Command("go", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	return binPath
}

// TestVersionFlag verifies that --version prints the version string.
func TestVersionFlag(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	binPath := buildBinary(t, "-X main.version=v1.2.3-test")

	out, err := exec.Command(binPath, "--version").Output()
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}

	got := strings.TrimSpace(string(out))
	want := "passerby v1.2.3-test"
	if got != want {
		t.Errorf("--version = %q, want %q", got, want)
	}
}

func TestPrintVersion(t *testing.T) {
	if got := PrintVersion("dev"); got != "passerby dev\n" {
		t.Errorf("PrintVersion = %q", got)
	}
}

// ---------------------------------------------------------------------------
// board and next
// ---------------------------------------------------------------------------

func TestBoard_DefaultLocation(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t)

	for _, want := range []string{"Prayer Times in Dubai, UAE", "Fajr", "Isha", "3:02 PM", "in 02:22:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("board missing %q:\n%s", want, out)
		}
	}

	q := env.lastRequest(t)
	if q.Get("city") != "Dubai" || q.Get("country") != "AE" {
		t.Errorf("fetched %v, want Dubai/AE", q)
	}
	if q.Get("method") != "3" || q.Get("school") != "0" {
		t.Errorf("calculation params = %v, want method 3 school 0", q)
	}
}

func TestBoard_JSON(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "--json")

	var got boardJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Location.City != "Dubai" {
		t.Errorf("location = %+v", got.Location)
	}
	if len(got.Timings) != 5 {
		t.Fatalf("expected 5 timings, got %d", len(got.Timings))
	}
	if got.State == nil {
		t.Fatal("state missing")
	}
	if got.State.Kind != "countdown" || got.State.Prayer != "Asr" || got.State.Remaining != 8520 {
		t.Errorf("state = %+v, want countdown to Asr in 8520s", got.State)
	}
	if got.Timezone != "UTC" {
		t.Errorf("timezone = %q", got.Timezone)
	}
}

func TestBoard_FetchFailureWarns(t *testing.T) {
	env := newTestEnv(t)

	out, errOut, err := env.run(context.Background(), "--city", "Atlantis", "--country", "XX")
	if err != nil {
		t.Fatalf("board should not fail: %v", err)
	}
	if !strings.Contains(errOut, "warning:") {
		t.Errorf("expected a warning on stderr, got %q", errOut)
	}
	if !strings.Contains(out, "No prayer times loaded.") {
		t.Errorf("board output = %q", out)
	}
}

func TestNext_Formats(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, "Asr 3:02 PM (2h 22m)"},
		{[]string{"--format", "countdown"}, "Asr 02:22:00"},
		{[]string{"--format", "{{.ShortName}} {{.Time}}", "--time-format", "24h"}, "A 15:02"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			env := newTestEnv(t)
			out := env.mustRun(t, append([]string{"next"}, tt.args...)...)
			if out != tt.want {
				t.Errorf("next = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestNext_FetchFailure(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(context.Background(), "next", "--city", "Atlantis", "--country", "XX")
	if !errors.Is(err, apperr.ErrFetchFailed) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
}

func TestOverride_RequiresBoth(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(context.Background(), "next", "--city", "London")
	if err == nil || !strings.Contains(err.Error(), "--city and --country") {
		t.Fatalf("expected pairing error, got %v", err)
	}
}

func TestOverride_NotPersisted(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "next", "--city", "london", "--country", "gb")
	q := env.lastRequest(t)
	if q.Get("city") != "London" || q.Get("country") != "GB" {
		t.Errorf("fetched %v, want London/GB", q)
	}

	out := env.mustRun(t, "location", "show")
	if !strings.Contains(out, "Dubai") || !strings.Contains(out, "(default)") {
		t.Errorf("override leaked into the store: %q", out)
	}
}

func TestFlags_Calculation(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "next", "--method", "4", "--school", "1")
	q := env.lastRequest(t)
	if q.Get("method") != "4" || q.Get("school") != "1" {
		t.Errorf("calculation params = %v", q)
	}

	if _, _, err := env.run(context.Background(), "next", "--method", "6"); !errors.Is(err, apperr.ErrUnknownMethod) {
		t.Errorf("--method 6: expected unknown method, got %v", err)
	}
	if _, _, err := env.run(context.Background(), "next", "--school", "3"); !errors.Is(err, apperr.ErrInvalidSchool) {
		t.Errorf("--school 3: expected invalid school, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// methods
// ---------------------------------------------------------------------------

func TestMethodsSubcommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "methods")
	for _, want := range []string{
		"Muslim World League",
		"Umm Al-Qura",
		"Ministry of Awqaf, Islamic Affairs and Holy Places, Jordan",
		"Hanafi",
		"twice object height",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("methods output missing %q", want)
		}
	}
}

func TestMethodsSubcommand_JSON(t *testing.T) {
	env := newTestEnv(t)

	var got methodsJSON
	if err := json.Unmarshal([]byte(env.mustRun(t, "methods", "--json")), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Methods) != 21 || len(got.Schools) != 2 {
		t.Errorf("got %d methods and %d schools", len(got.Methods), len(got.Schools))
	}
}

// ---------------------------------------------------------------------------
// location
// ---------------------------------------------------------------------------

func TestLocationSet(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "location", "set", "london", "gb")
	if !strings.Contains(out, "London, United Kingdom") {
		t.Errorf("set output = %q", out)
	}

	var got locationJSON
	if err := json.Unmarshal([]byte(env.mustRun(t, "location", "--json")), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !got.Saved || got.City != "London" || got.CountryCode != "GB" {
		t.Errorf("saved location = %+v", got)
	}

	// The board now uses the saved city.
	env.mustRun(t, "next")
	if q := env.lastRequest(t); q.Get("city") != "London" {
		t.Errorf("board fetched %v, want London", q)
	}
}

func TestLocationSet_UnknownCityKeepsSaved(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "location", "set", "Mecca", "SA")

	_, _, err := env.run(context.Background(), "location", "set", "Atlantis", "XX")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := apperr.Message(err); got != "Failed to find Atlantis. Try another." {
		t.Errorf("message = %q", got)
	}

	if out := env.mustRun(t, "location"); !strings.Contains(out, "Mecca") {
		t.Errorf("saved location changed: %q", out)
	}
}

func TestLocationDetect(t *testing.T) {
	env := newTestEnv(t)
	env.geoOK = true

	out := env.mustRun(t, "location", "detect")
	if !strings.Contains(out, "Mecca, Saudi Arabia") {
		t.Errorf("detect output = %q", out)
	}
	if q := env.lastRequest(t); q.Get("city") != "Mecca" || q.Get("country") != "SA" {
		t.Errorf("fetched %v, want Mecca/SA", q)
	}
	if out := env.mustRun(t, "location"); strings.Contains(out, "(default)") {
		t.Errorf("detected location not saved: %q", out)
	}
}

func TestLocationDetect_Denied(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(context.Background(), "location", "detect")
	if !errors.Is(err, apperr.ErrGeolocationDenied) {
		t.Fatalf("expected denied, got %v", err)
	}
}

func TestLocationBrowse(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "location", "browse", "united")
	for _, want := range []string{"United Kingdom", "United States", "United Arab Emirates"} {
		if !strings.Contains(out, want) {
			t.Errorf("browse missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Saudi Arabia") {
		t.Errorf("browse should filter out Saudi Arabia:\n%s", out)
	}

	if _, _, err := env.run(context.Background(), "location", "browse", "zzz"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestLocationCities(t *testing.T) {
	env := newTestEnv(t)

	if out := env.mustRun(t, "location", "cities", "sa", "me"); out != "Mecca\nMedina\n" {
		t.Errorf("cities = %q", out)
	}
	if _, _, err := env.run(context.Background(), "location", "cities", "QQ"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestLocationReset(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "location", "set", "London", "GB")

	env.mustRun(t, "location", "reset")

	if out := env.mustRun(t, "location"); !strings.Contains(out, "(default)") {
		t.Errorf("location not reset: %q", out)
	}
	// Resetting twice is fine.
	env.mustRun(t, "location", "reset")
}

// ---------------------------------------------------------------------------
// config
// ---------------------------------------------------------------------------

func TestConfig_SetShowReset(t *testing.T) {
	env := newTestEnv(t)

	if out := env.mustRun(t, "config", "path"); strings.TrimSpace(out) != env.cfgPath {
		t.Errorf("config path = %q, want %q", out, env.cfgPath)
	}

	env.mustRun(t, "config", "set", "method", "4")
	env.mustRun(t, "config", "set", "time_format", "24h")

	out := env.mustRun(t, "config")
	if !strings.Contains(out, "4 (Umm Al-Qura University, Makkah)") {
		t.Errorf("config show missing method name:\n%s", out)
	}
	if !strings.Contains(out, "(not set)") {
		t.Errorf("config show should mark unset keys:\n%s", out)
	}

	if got := env.mustRun(t, "next", "--format", "name-and-time"); got != "Asr 15:02" {
		t.Errorf("next with 24h config = %q", got)
	}
	if q := env.lastRequest(t); q.Get("method") != "4" {
		t.Errorf("saved method not used: %v", q)
	}

	// Flags beat the file.
	if got := env.mustRun(t, "next", "--format", "name-and-time", "--time-format", "12h"); got != "Asr 3:02 PM" {
		t.Errorf("flag override = %q", got)
	}

	env.mustRun(t, "config", "reset")
	if _, err := os.Stat(env.cfgPath); !os.IsNotExist(err) {
		t.Errorf("config file still present after reset: %v", err)
	}
}

func TestConfig_Effective(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("PASSERBY_SCHOOL", "1")

	out := env.mustRun(t, "config", "--effective", "--method", "2")
	if !strings.Contains(out, "2 (Islamic Society of North America)") {
		t.Errorf("effective config missing flag method:\n%s", out)
	}
	if !strings.Contains(out, "1 (Hanafi)") {
		t.Errorf("effective config missing env school:\n%s", out)
	}
}

func TestConfig_SetInvalid(t *testing.T) {
	env := newTestEnv(t)

	tests := [][]string{
		{"method", "6"},
		{"school", "2"},
		{"time_format", "13h"},
		{"store", "sqlite"},
		{"nope", "1"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, "="), func(t *testing.T) {
			if _, _, err := env.run(context.Background(), append([]string{"config", "set"}, args...)...); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := os.Stat(env.cfgPath); !os.IsNotExist(err) {
		t.Errorf("invalid values should not write the config file: %v", err)
	}
}

// ---------------------------------------------------------------------------
// watch and serve
// ---------------------------------------------------------------------------

func TestWatch_Plain(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	out, errOut, err := env.run(ctx, "watch", "--plain")
	if err != nil {
		t.Fatalf("watch: %v\nstderr: %s", err, errOut)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected at least two ticks, got %q", out)
	}
	if lines[0] != "Asr in 02:22:00 (3:02 PM)" {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestWatch_NoPrayers(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(context.Background(), "watch", "--plain", "--city", "Atlantis", "--country", "XX")
	if !errors.Is(err, apperr.ErrFetchFailed) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
}

func TestWatch_MQTTNeedsBroker(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(context.Background(), "watch", "--plain", "--mqtt")
	if err == nil || !strings.Contains(err.Error(), "mqtt_broker") {
		t.Fatalf("expected broker error, got %v", err)
	}
}

func TestServe_Shutdown(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if _, errOut, err := env.run(ctx, "serve", "--addr", "127.0.0.1:0"); err != nil {
		t.Fatalf("serve: %v\nstderr: %s", err, errOut)
	}
}

func TestPlainLine(t *testing.T) {
	tests := []struct {
		snap       ticker.Snapshot
		twelveHour bool
		want       string
	}{
		{ticker.Snapshot{PrayerName: "Asr", PrayerTime: "15:02", Hours: 2, Minutes: 22}, true, "Asr in 02:22:00 (3:02 PM)"},
		{ticker.Snapshot{PrayerName: "Dhuhr", PrayerTime: "12:13", IsGrace: true}, false, "Dhuhr now (12:13)"},
	}
	for _, tt := range tests {
		if got := plainLine(tt.snap, tt.twelveHour); got != tt.want {
			t.Errorf("plainLine = %q, want %q", got, tt.want)
		}
	}
}
