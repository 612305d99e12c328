package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	VERSION       = "dev"
	GITBRANCH     = "branch"
	GITCOMMIT     = "last commit"
	GITCOMMITDATE = "last change"
)

var rootCmd = &cobra.Command{
	Use:   "ethtxn",
	Short: "ethtxn - build, sign and submit Ethereum transactions",
	Long:  banner(),
	Args:  cobra.MinimumNArgs(1),
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "ethtxn", version())
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(NewSendCmd())
	rootCmd.AddCommand(NewAccountCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func version() string {
	if GITBRANCH == "master" {
		return fmt.Sprintf("%s (commit:%s %s)", VERSION, GITCOMMIT, GITCOMMITDATE)
	}
	return fmt.Sprintf("%s (commit:%s %s %s)", VERSION, GITCOMMIT, GITCOMMITDATE, GITBRANCH)
}

func banner() string {
	s := ""
	s += `==============================================================` + "\n"
	s += `          __  .__     __                  ` + "\n"
	s += `   _____/  |_|  |___/  |____  ___ ____   ` + "\n"
	s += ` _/ __ \   __\  |  \   __\  \/  //    \  ` + "\n"
	s += ` \  ___/|  | |   Y  \  |  >    <|   |  \ ` + "\n"
	s += `  \___  >__| |___|  /__| /__/\_ \___|  / ` + "\n"
	s += `      \/          \/           \/    \/  ` + "\n"
	s += "\n"
	s += "=============== build, sign and submit transactions ===========\n"
	return s
}
