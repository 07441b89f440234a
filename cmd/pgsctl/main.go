// pgsctl manages the account databases under an /etc tree according to
// a strict site policy: fixed system users and groups, one group and
// one subordinate id block per normal user, no stray shadow entries.
//
// Usage:
//
//	# Verify the live databases
//	pgsctl check
//
//	# Repair every fixable deviation and rewrite the files
//	pgsctl fix
//
//	# Manage normal users
//	pgsctl user add alice
//	pgsctl user passwd alice
//	pgsctl user join alice audio
//	pgsctl user del alice
//
//	# Manage stand-alone groups
//	pgsctl group add builders
//	pgsctl group del builders
//
//	# Operate on a staging tree instead of the live system
//	pgsctl --prefix /mnt/target check
package main

func main() {
	Execute()
}
