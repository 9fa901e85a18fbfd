// SPDX-License-Identifier: MPL-2.0

package main

import cmd "distcheck/cmd/distcheck"

func main() {
	cmd.Execute()
}
