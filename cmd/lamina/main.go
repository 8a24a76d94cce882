// Package main provides the Lamina CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/lamina-ml/lamina/backend/cpu"
	"github.com/lamina-ml/lamina/backend/webgpu"
)

const version = "v0.1.0-dev"

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	switch flag.Arg(0) {
	case "version":
		fmt.Printf("Lamina %s\n", version)
	case "info":
		printInfo()
	case "":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Lamina - convolution and pooling layers for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  info       Show available compute backends")
}

func printInfo() {
	fmt.Printf("cpu: %s\n", cpu.New().Name())

	if !webgpu.IsAvailable() {
		fmt.Println("webgpu: not available")
		return
	}
	gpu, err := webgpu.New()
	if err != nil {
		fmt.Printf("webgpu: %v\n", err)
		return
	}
	defer gpu.Release()
	fmt.Printf("webgpu: %s\n", gpu.Name())
}
