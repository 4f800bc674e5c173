// Command simpledb runs SQL through the simpledb facade and manages the
// audit log it writes.
//
//	simpledb --config database.config.ini count "SELECT COUNT(*) FROM users WHERE active = ?" 1
//	simpledb query "UPDATE users SET active = 0 WHERE id = ?" 7
//	simpledb row --fetch num "SELECT * FROM users WHERE id = ?" 7
//	simpledb audit show --date 2024-03-09
//	simpledb serve --listen :8080
package main

import "os"

func main() {
	os.Exit(Execute())
}
