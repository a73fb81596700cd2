// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/andonyns/Data-Management-Service/cmd/dmsbuild"

func main() {
	cmd.Execute()
}
