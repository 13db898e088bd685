package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrz1836/tessera/internal/backup"
	"github.com/mrz1836/tessera/internal/output"
	"github.com/mrz1836/tessera/internal/tesscrypto"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	backupDecrypt     bool
	backupRestoreName string
)

// backupCmd is the parent command for wallet backups.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create and restore encrypted wallet backups",
	Long: `Backups hold the root key, account list and output ledger of a
wallet, encrypted with the wallet password and protected by a checksum.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupCreateCmd = &cobra.Command{
	Use:   "create <wallet>",
	Short: "Back up a wallet",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupCreate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupVerifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Check a backup's integrity",
	Long: `Check the checksum of a backup. With --decrypt the password is
asked for and decryption is tested too.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupVerify,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Recreate a wallet from a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupRestore,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List backup files",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runBackupList,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupVerifyCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupListCmd)

	backupVerifyCmd.Flags().BoolVar(&backupDecrypt, "decrypt", false, "also test decryption")
	backupRestoreCmd.Flags().StringVar(&backupRestoreName, "name", "", "restore under a different wallet name")
}

func backupService(ctx *CommandContext) *backup.Service {
	return backup.NewService(ctx.Config.BackupsDir(), ctx.Config.WalletsDir(), ctx.Storage)
}

// resolveBackupPath accepts either a path or a file name inside the backup directory.
func resolveBackupPath(svc *backup.Service, arg string) string {
	if filepath.Base(arg) == arg {
		return svc.BackupPath(arg)
	}
	return arg
}

func manifestFields(m *backup.Manifest) output.Fields {
	return output.Fields{
		{Key: "wallet", Value: m.WalletName},
		{Key: "network", Value: m.Network},
		{Key: "accounts", Value: m.Accounts},
		{Key: "utxos", Value: m.UTXOs},
		{Key: "created", Value: m.CreatedAt.Format("2006-01-02 15:04:05")},
		{Key: "encryption", Value: m.EncryptionMethod},
	}
}

func runBackupCreate(_ *cobra.Command, args []string) error {
	ctx := currentContext()
	name := args[0]

	password, err := promptPasswordFn("Enter encryption password: ")
	if err != nil {
		return err
	}
	defer tesscrypto.Zero(password)

	b, path, err := backupService(ctx).Create(name, password)
	if err != nil {
		return err
	}
	ctx.Logger.WithFields(map[string]any{"wallet": name, "path": path}, "backup created")

	fields := append(manifestFields(&b.Manifest),
		output.Field{Key: "path", Value: path},
		output.Field{Key: "checksum", Value: b.Checksum},
	)
	return ctx.Formatter.Print(fields)
}

func runBackupVerify(_ *cobra.Command, args []string) error {
	ctx := currentContext()
	svc := backupService(ctx)
	path := resolveBackupPath(svc, args[0])

	var (
		m   *backup.Manifest
		err error
	)
	if backupDecrypt {
		password, perr := promptPasswordFn("Enter encryption password: ")
		if perr != nil {
			return perr
		}
		defer tesscrypto.Zero(password)
		m, err = svc.VerifyWithDecryption(path, password)
	} else {
		m, err = svc.Verify(path)
	}
	if err != nil {
		return err
	}

	fields := append(manifestFields(m),
		output.Field{Key: "valid", Value: true},
		output.Field{Key: "decrypted", Value: backupDecrypt},
	)
	return ctx.Formatter.Print(fields)
}

func runBackupRestore(_ *cobra.Command, args []string) error {
	ctx := currentContext()
	svc := backupService(ctx)
	path := resolveBackupPath(svc, args[0])

	if backupRestoreName != "" {
		if err := checkNewWalletName(ctx, backupRestoreName); err != nil {
			return err
		}
	}

	password, err := promptPasswordFn("Enter encryption password: ")
	if err != nil {
		return err
	}
	defer tesscrypto.Zero(password)

	meta, err := svc.Restore(path, password, backupRestoreName)
	if err != nil {
		return err
	}
	ctx.Logger.WithFields(map[string]any{"wallet": meta.Name, "path": path}, "backup restored")

	return ctx.Formatter.Print(output.Fields{
		{Key: "name", Value: meta.Name},
		{Key: "network", Value: meta.Network},
		{Key: "accounts", Value: len(meta.Accounts)},
	})
}

func runBackupList(_ *cobra.Command, _ []string) error {
	ctx := currentContext()
	svc := backupService(ctx)

	names, err := svc.List()
	if err != nil {
		return err
	}
	if len(names) == 0 && !ctx.Formatter.IsJSON() {
		output.Info(ctx.Formatter.Writer(), "No backups found. Create one with: tessera backup create <wallet>")
		return nil
	}

	tbl := output.NewTable("FILE", "WALLET", "CREATED", "STATUS")
	for _, n := range names {
		m, err := svc.Verify(svc.BackupPath(n))
		if err != nil {
			tbl.AddRow(n, "-", "-", fmt.Sprintf("invalid: %v", err))
			continue
		}
		tbl.AddRow(n, m.WalletName, m.CreatedAt.Format("2006-01-02 15:04:05"), "ok")
	}
	return ctx.Formatter.Print(tbl)
}
