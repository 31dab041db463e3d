package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/go-github/v45/github"
)

// Version, Owner and Repo are set at compile time, e.g.
//
//	go build -ldflags "-X github.com/fwcheck/fwcheck/internal/app.Version=1.2.0 \
//	  -X github.com/fwcheck/fwcheck/internal/app.Owner=acme" ./cmd
//
// Owner and Repo name the GitHub repository whose releases -u compares against.
var (
	Version = ""
	Owner   = "fwcheck"
	Repo    = "fwcheck"
)

// ErrDevelopmentBuild is returned by CheckForUpdates when no Version was set at build time.
var ErrDevelopmentBuild = errors.New("update check needs a release build, this binary has no version")

// PrintUsage prints how fwcheck should be run
func PrintUsage() {
	executableName := os.Args[0]

	fmt.Printf("\nFWCHECK version %s\n\n", Version)
	fmt.Printf("Try running %s like:\n", executableName)
	fmt.Printf("%s -f <config file> -s    on the server side, then\n", executableName)
	fmt.Printf("%s -f <config file> -c -v on the client side\n", executableName)
	fmt.Printf("\n[flags]\n")

	fs, _ := newFlagSet()
	fs.VisitAll(func(f *flag.Flag) {
		flagName := f.Name
		if len(f.Name) > 1 {
			flagName = "-" + flagName
		}

		fmt.Printf("  -%s : %s\n", flagName, f.Usage)
	})
}

func compareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	for i := range min(len(parts1), len(parts2)) {
		n1, _ := strconv.Atoi(parts1[i])
		n2, _ := strconv.Atoi(parts2[i])

		if n1 < n2 {
			return -1
		}
		if n1 > n2 {
			return 1
		}
	}

	// for cases in which version numbers differ in length
	if len(parts1) < len(parts2) {
		return -1
	}

	if len(parts1) > len(parts2) {
		return 1
	}

	return 0
}

// PrintVersion displays the version
func PrintVersion() {
	fmt.Printf("FWCHECK version %s\n", Version)
}

var releaseTag = regexp.MustCompile(`^v?(\d+\.\d+\.\d+)$`)

// CheckForUpdates checks for newer releases and returns an update message
func CheckForUpdates(ctx context.Context) (string, error) {
	if Version == "" {
		return "", ErrDevelopmentBuild
	}

	c := github.NewClient(nil)

	// unauthenticated requests from the same IP are limited to 60 per hour
	latestRelease, _, err := c.Repositories.GetLatestRelease(ctx, Owner, Repo)
	if err != nil {
		return "", fmt.Errorf("check for updates: %w", err)
	}

	return updateMessage(Version, latestRelease.GetTagName())
}

func updateMessage(current, latestTagName string) (string, error) {
	latestVersion := releaseTag.FindStringSubmatch(latestTagName)
	if len(latestVersion) == 0 {
		return "", fmt.Errorf("version name does not match expected format: %s", latestTagName)
	}

	switch compareVersions(current, latestVersion[1]) {
	case -1:
		return fmt.Sprintf("Found newer version %s\nPlease update FWCHECK from the URL below:\nhttps://github.com/%s/%s/releases/tag/%s",
			latestVersion[1], Owner, Repo, latestTagName), nil
	case 1:
		return fmt.Sprintf("Current version %s is newer than the latest release %s",
			current, latestVersion[1]), nil
	default:
		return fmt.Sprintf("FWCHECK is on the latest version: %s", current), nil
	}
}
