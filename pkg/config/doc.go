/*
Package config manages configuration parsing and validation for uploadrelay.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |   HCL   |   |  JSON   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Loads the document root and the upload type table
- Configures the HTTP listener, copy workers and move strategy
- Applies UPLOADRELAY_* environment overrides (optionally from a .env file)

🔄 Flow:
1. Reads configuration from file
2. Picks a parser by file extension
3. Applies environment overrides
4. Validates values, resolves paths to absolute form and fills defaults

🔍 Example:

	cfg, err := config.Load(ctx, "uploadrelay.yaml")
	if err != nil {
		return err
	}
	read, write, _ := cfg.Server.Timeouts()
*/
package config
