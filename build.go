//go:build ignore

package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// rtmidi driver is a cgo package, every target needs its own C cross compiler
var availableTargets = []target{
	{goos: "linux", goarch: "arm", goarm: "6", cc: "arm-linux-gnueabi-gcc"},
	{goos: "linux", goarch: "arm", goarm: "7", cc: "arm-linux-gnueabihf-gcc"},
	{goos: "linux", goarch: "arm64", cc: "aarch64-linux-gnu-gcc"}, // ARMv8
	{goos: "linux", goarch: "amd64", cc: "gcc"},
}

type target struct {
	goos   string
	goarch string
	goarm  string
	cc     string
}

func (t *target) String() string {
	if t.goarm != "" {
		return fmt.Sprintf("%s-%s-v%s", t.goos, t.goarch, t.goarm)
	}
	return fmt.Sprintf("%s-%s", t.goos, t.goarch)
}

func (t *target) env() []string {
	vars := []string{
		"CGO_ENABLED=1",
		fmt.Sprintf("GOOS=%s", t.goos),
		fmt.Sprintf("GOARCH=%s", t.goarch),
		fmt.Sprintf("CC=%s", t.cc),
	}
	if t.goarm != "" {
		vars = append(vars, fmt.Sprintf("GOARM=%s", t.goarm))
	}
	return vars
}

type buildResult struct {
	target         target
	err            error
	stdout, stderr string
}

func build(t target, project, basename string) buildResult {
	binaryPath := fmt.Sprintf("./builds/%s-%s", basename, t.String())

	params := []string{"build", "-o", binaryPath}
	if race {
		params = append(params, "-race")
	}
	params = append(params, project)

	cmd := exec.Command("go", params...)
	cmd.Env = append(os.Environ(), t.env()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return buildResult{target: t, err: err, stdout: stdout.String(), stderr: stderr.String()}
}

func selectTargets(selection string) ([]target, error) {
	if selection == "all" {
		return availableTargets, nil
	}

	var selected []target
	for _, rt := range strings.Split(selection, ",") {
		var found bool
		for _, t := range availableTargets {
			if t.String() == rt {
				selected = append(selected, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("target not found: %s", rt)
		}
	}
	return selected, nil
}

var selection, project, basename string
var race bool

func init() {
	var targets []string
	for _, target := range availableTargets {
		targets = append(targets, target.String())
	}
	flag.StringVar(&selection, "platforms", "all", fmt.Sprintf(
		"comma-separated target platform list\navailable: %s", strings.Join(targets, ",")),
	)
	flag.StringVar(&project, "project", "./cmd/mixage/", "choose project directory")
	flag.StringVar(&basename, "base", "mixage", "base filename for output binaries")
	flag.BoolVar(&race, "race", false, "include race detector")
	flag.Parse()
}

func main() {
	log.SetFlags(log.Ltime)

	selectedTargets, err := selectTargets(selection)
	if err != nil {
		log.Printf("%s", err)
		os.Exit(1)
	}

	var names []string
	for _, t := range selectedTargets {
		names = append(names, t.String())
	}
	log.Printf("selected targets: %s", strings.Join(names, ", "))

	results := make(chan buildResult, len(selectedTargets))

	wg := sync.WaitGroup{}
	log.Printf("engaging parallel building for %d targets\n", len(selectedTargets))
	for _, t := range selectedTargets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			log.Printf("building target %s          %s", project, t.String())
			results <- build(t, project, basename)
		}(t)
	}
	wg.Wait()
	close(results)

	ok := true
	for res := range results {
		if res.err == nil {
			log.Printf("building target %s success: %s", project, res.target.String())
			continue
		}
		ok = false
		log.Printf("building target %s failed:  %s (%s)", project, res.target.String(), res.err)
		fmt.Printf("\n>>> Failed build: project: %s, base: %s, target: %s\n", project, basename, res.target.String())
		if res.stdout != "" {
			fmt.Printf("======== STDOUT ========\n%s========================\n", res.stdout)
		}
		if res.stderr != "" {
			fmt.Printf("======== STDERR ========\n%s========================\n", res.stderr)
		}
	}

	if !ok {
		os.Exit(1)
	}
}
