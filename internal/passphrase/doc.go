// Package passphrase finds the journal passphrase.
//
// Sources are tried in order: the --password flag, the --password-file
// file, the DIARIA_PASSWORD environment variable, the OS keyring and
// finally an interactive prompt. A keyring entry that no longer unlocks
// the keys is deleted and the user is prompted instead.
package passphrase
