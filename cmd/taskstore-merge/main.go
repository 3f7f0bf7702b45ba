// taskstore-merge is the git merge driver for collection logs. Git invokes
// it with the ancestor, ours, and theirs file paths; the merged result is
// written over ours.
//
// Register it with:
//
//	git config merge.taskstore.driver "taskstore-merge %O %A %B"
//
// Exit codes follow the merge driver contract: 0 merged cleanly, 1 merged
// with conflicts, 2 the driver itself failed.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/taskstore/internal/merge"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "usage: %s <ancestor> <ours> <theirs>\n", os.Args[0])
		os.Exit(merge.ExitError)
	}

	code, err := merge.Run(os.Args[1], os.Args[2], os.Args[3])
	if err != nil {
		fmt.Fprintln(os.Stderr, "taskstore-merge:", err)
	}
	os.Exit(code)
}
