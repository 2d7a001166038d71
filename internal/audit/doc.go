// Package audit implements the black-box audit suite for the system monitor application.
//
// CategoryRunner turns probe readings into categorized test results, LaunchTester builds the
// application and checks that it survives its dwell period and stops on SIGTERM, and Service
// sequences both before writing the markdown report through WriteReport. CommandBuilder wires
// the run, checklist, and view Cobra commands.
package audit
