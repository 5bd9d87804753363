package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/consently/consent-management-api/tests/integration/testutils"
)

func main() {
	if err := testutils.BuildServer(); err != nil {
		fmt.Printf("Failed to build server: %v\n", err)
		os.Exit(1)
	}

	if err := testutils.StartServer(); err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		os.Exit(1)
	}

	if err := testutils.WaitForServer(); err != nil {
		fmt.Printf("Server failed to start: %v\n", err)
		testutils.StopServer()
		os.Exit(1)
	}

	fmt.Println("\nRunning tests...")
	err := runTests()
	testutils.StopServer()
	if err != nil {
		fmt.Printf("Tests failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nAll tests completed successfully")
}

func runTests() error {
	packages := []string{
		"./dpdpa",
	}

	for _, pkg := range packages {
		fmt.Printf("\nRunning tests in %s...\n", pkg)
		cmd := exec.Command("go", "test", "-v", "-count=1", pkg)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Env = append(os.Environ(), testutils.ServerURLEnv+"="+testutils.ServerURL())

		if err := cmd.Run(); err != nil {
			return fmt.Errorf("tests failed in package %s: %w", pkg, err)
		}
	}

	return nil
}
