package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/blob-tools-mcp/internal/frame"
	"github.com/ironsheep/blob-tools-mcp/internal/pipeline"
	"github.com/ironsheep/blob-tools-mcp/internal/render"
	"github.com/ironsheep/blob-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("blob-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "detect":
			configureLogging()
			if err := runDetect(os.Args[2:]); err != nil {
				log.Fatalf("detect: %v", err)
			}
			return
		}
	}

	debug := configureLogging()
	if debug {
		log.Printf("Blob MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.New()
	srv.SetVersion(Version)
	if debug {
		srv.SetLogger(log.Default())
	}
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func usage() {
	fmt.Println("blob-tools-mcp - MCP server for source detection in astronomical images")
	fmt.Println()
	fmt.Println("Usage: blob-tools-mcp [options]")
	fmt.Println("       blob-tools-mcp detect [flags] <image>")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  detect           Detect sources in one image and print them as JSON")
	fmt.Println("                   (run 'blob-tools-mcp detect -h' for its flags)")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  BLOB_MCP_LOG_LEVEL=debug     Enable debug logging")
	fmt.Println()
	fmt.Println("Without a command the server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

// configureLogging sends logs to stderr (stdout is for MCP protocol) and
// reports whether debug logging is on.
func configureLogging() bool {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	return os.Getenv("BLOB_MCP_LOG_LEVEL") == "debug"
}

// runDetect runs the pipeline once on the image named in args and writes the
// result to stdout.
func runDetect(args []string) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	threshold := fs.Float64("threshold", 0, "detection threshold in 16-bit units")
	autoSigma := fs.Float64("auto-sigma", 3, "derive the threshold this many sigmas above the background median; ignored when -threshold is set")
	multiplier := fs.Float64("multiplier", 1, "factor applied to the threshold")
	deblend := fs.Float64("deblend", 2, "deblend level as a multiple of the detection level; 1 or less disables deblending")
	minTotal := fs.Float64("min-total", 0, "minimum total intensity of a source")
	minPixels := fs.Int("min-pixels", 1, "minimum pixels in a source")
	smooth := fs.Float64("smooth", 1, "gaussian smoothing radius for the detection plane")
	confidence := fs.String("confidence", "", "optional confidence map")
	capacity := fs.Int("pixel-capacity", 250000, "maximum above-threshold pixels")
	segmentation := fs.String("segmentation", "", "write a segmentation map PNG to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one image path, got %d arguments", fs.NArg())
	}

	frameOpts := frame.DefaultOptions()
	frameOpts.SmoothRadius = *smooth
	frameOpts.ConfidencePath = *confidence
	f, err := frame.Load(fs.Arg(0), frameOpts)
	if err != nil {
		return err
	}

	opts := pipeline.DefaultOptions()
	if *threshold > 0 {
		opts.Scan = opts.Scan.WithThreshold(*threshold)
	} else {
		opts.AutoSigma = *autoSigma
	}
	opts.Scan = opts.Scan.WithMultiplier(*multiplier)
	opts.DeblendMultiplier = *deblend
	opts.MinTotal = *minTotal
	opts.MinPixels = *minPixels
	opts.PixelCapacity = *capacity

	var logger *log.Logger
	if os.Getenv("BLOB_MCP_LOG_LEVEL") == "debug" {
		logger = log.Default()
	}
	runner, err := pipeline.NewRunner(opts, logger)
	if err != nil {
		return err
	}
	res, err := runner.Run(f)
	if err != nil {
		return err
	}

	if *segmentation != "" {
		img := render.Segmentation(f.Width, f.Height, res.PixelLists())
		if err := imaging.Save(img, *segmentation); err != nil {
			return fmt.Errorf("failed to save segmentation: %w", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
