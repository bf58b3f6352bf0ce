//go:build ignore

// build.go - switchrecon build system
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: build, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"switchrecon/pkg/contracts"
)

const binary = "switchrecon"

var (
	rootDir string
	distDir string

	// release platforms as GOOS/GOARCH
	platforms = []string{
		"linux/amd64",
		"linux/arm64",
		"darwin/arm64",
		"windows/amd64",
	}

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose   bool
	BuildTime string
	GitCommit string
}

func main() {
	target := flag.String("target", "build", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		printError(fmt.Sprintf("Failed to get current directory: %v", err))
		os.Exit(1)
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	printHeader()
	startTime := time.Now()

	ctx := &BuildContext{
		Verbose:   *verbose,
		BuildTime: time.Now().UTC().Format(time.RFC3339),
		GitCommit: gitCommit(),
	}

	switch *target {
	case "build":
		build(ctx, "", "")
	case "test":
		runTests(ctx.Verbose)
	case "clean":
		clean()
	case "release":
		buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Printf("%s   switchrecon v%s - Build System%s\n", colorCyan, contracts.Version, colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

// gitCommit returns the short HEAD hash, or "unknown" outside a checkout
func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

// build compiles cmd/switchrecon for goos/goarch, or the host when empty
func build(ctx *BuildContext, goos, goarch string) string {
	name := binary
	if goos != "" {
		name = fmt.Sprintf("%s-%s-%s", binary, goos, goarch)
	}
	if goos == "windows" {
		name += ".exe"
	}
	outputPath := filepath.Join(distDir, name)

	printInfo(fmt.Sprintf("Building %s...", name))

	pkg := "switchrecon/pkg/contracts"
	ldflags := fmt.Sprintf("-s -w -X %s.BuildTime=%s -X %s.GitCommit=%s",
		pkg, ctx.BuildTime, pkg, ctx.GitCommit)

	args := []string{"build", "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/switchrecon"}
	if ctx.Verbose {
		args = append([]string{"build", "-v"}, args[1:]...)
	}

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = os.Environ()
	if goos != "" {
		cmd.Env = append(cmd.Env, "CGO_ENABLED=0", "GOOS="+goos, "GOARCH="+goarch)
	}
	cmd.Stderr = os.Stderr
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", name, float64(info.Size())/1024/1024))
	}
	return outputPath
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
		os.Exit(1)
	}
	printSuccess("Build artifacts cleaned")
}

// buildRelease cross-compiles every platform and writes VERSION.txt
func buildRelease(ctx *BuildContext) {
	printInfo("Building release version...")
	clean()

	for _, p := range platforms {
		goos, goarch, _ := strings.Cut(p, "/")
		build(ctx, goos, goarch)
	}

	content := fmt.Sprintf("switchrecon v%s (api %s)\nBuilt: %s\nCommit: %s\n",
		contracts.Version, contracts.APIVersion, ctx.BuildTime, ctx.GitCommit)
	if err := os.WriteFile(filepath.Join(distDir, "VERSION.txt"), []byte(content), 0644); err != nil {
		printError(fmt.Sprintf("Failed to write VERSION.txt: %v", err))
		os.Exit(1)
	}
	printSuccess("Release build completed")
}

func showHelp() {
	fmt.Println("Usage: go run build.go -target=TARGET [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  build    Build switchrecon for the host into dist/")
	fmt.Println("  test     Run all Go tests with the race detector")
	fmt.Println("  clean    Remove dist/")
	fmt.Println("  release  Cross-compile every release platform")
}
