// Command aprx inspects and grades ArcGIS Pro project archives.
package main

import "github.com/papapumpkin/aprx/cmd"

func main() {
	cmd.Execute()
}
