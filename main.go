// Command lyricscrawler crawls a lyrics archive into local storage,
// checkpointing progress so interrupted runs resume where they left
// off.
package main

import "github.com/ccampell/lyricscrawler/cmd"

func main() {
	cmd.Execute()
}
