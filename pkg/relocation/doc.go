/*
Package relocation implements the folder and file relocation operations.

	            +-------------+
	            |   Service   |
	            | (Outcomes)  |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	| Resolver|   | Copier  |   | Journal |
	| (roots) |   | (trees) |   | (moves) |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Copies the contents of one upload subdirectory into another
- Optionally removes the source subdirectory after a successful copy
- Removes, renames and moves single files

🔄 Flow:
1. Validates inputs in a fixed order, first failure wins
2. Resolves upload types and relative paths to absolute paths
3. Checks existence and conflicts on disk
4. Performs the filesystem work
5. Returns an Outcome with a message, a Kind and an operation id

⚡ Key Responsibilities:
- Never touching the filesystem before validation passes
- Keeping paths inside their upload root or the document root
- Surfacing generic messages while logging the underlying errors

🚚 Moves:
A move is a native rename. When the rename crosses devices, or when the
copy strategy is configured, the file is copied atomically and the source
removed afterward. Each phase is recorded in the journal so RecoverMoves
can finish or abandon a move interrupted by a crash.

🔍 Example:

	svc, err := relocation.FromConfig(cfg, journal.Nop{})
	if err != nil {
		return err
	}
	out := svc.CopyFolder(ctx, relocation.Request{
		CurrentUploadType: "invoices",
		TargetUploadType:  "archive",
		CurrentSubdirPath: "2024/A",
		TargetSubdirPath:  "2024/B",
	})
*/
package relocation
