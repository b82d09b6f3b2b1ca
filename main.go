// =============================================================================
// Subledger Mapper - Main Entry Point
// =============================================================================
//
// USAGE:
//   subledger-mapper process    - Resolve the transaction extract and write reports
//   subledger-mapper validate   - Check configuration and inputs without processing
//   subledger-mapper history    - List recorded runs
//   subledger-mapper version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core resolution logic, loaders, reports, history
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/subledger-mapper/cmd"
)

func main() {
	cmd.Execute()
}
