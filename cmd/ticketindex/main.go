// Command ticketindex is a thin line-oriented driver over the user
// directory example: it reads "[ts] cmd -k v ..." frames from stdin,
// one per line, and prints each command's result. It exists to show
// the command tokenizer and the userstore package wired to a real
// BTree end to end; it is not a complete reimplementation of the
// ticketing CLI's full command set.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/sjtu-ticket/bptreeindex/internal/command"
	"github.com/sjtu-ticket/bptreeindex/internal/userstore"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dataPath := "user.dat"
	if len(os.Args) > 1 {
		dataPath = os.Args[1]
	}
	users, err := userstore.NewUserManager(dataPath, userstore.DefaultPageSlotCount, userstore.DefaultCacheCapacity)
	if err != nil {
		logger.Error("open user store", "path", dataPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := users.Close(); err != nil {
			logger.Error("close user store", "error", err)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		stream := command.NewTokenStream(line)
		cmd, err := command.Parse(stream)
		if err != nil {
			fmt.Printf("-1 parse error: %v\n", err)
			continue
		}
		dispatch(users, cmd)
	}
	if err := scanner.Err(); err != nil {
		logger.Error("read stdin", "error", err)
		os.Exit(1)
	}
}

func dispatch(users *userstore.UserManager, cmd command.Command) {
	switch cmd.Name {
	case "add_user":
		privilege, _ := strconv.Atoi(cmd.Arg('g'))
		var ok bool
		if cmd.Has('c') {
			ok = users.AddUser(cmd.Arg('c'), cmd.Arg('u'), cmd.Arg('p'), cmd.Arg('n'), cmd.Arg('m'), privilege)
		} else {
			ok = users.AddFirstUser(cmd.Arg('u'), cmd.Arg('p'), cmd.Arg('n'), cmd.Arg('m'), privilege)
		}
		printResult(ok)
	case "login":
		printResult(users.Login(cmd.Arg('u'), cmd.Arg('p')))
	case "logout":
		printResult(users.Logout(cmd.Arg('u')))
	case "query_profile":
		user, ok := users.QueryProfile(cmd.Arg('c'), cmd.Arg('u'))
		if !ok {
			printResult(false)
			return
		}
		fmt.Printf("%s %s %s %d\n", user.Username.String(), user.Name.String(), user.Email.String(), user.Privilege)
	case "modify_profile":
		patch := userstore.ProfilePatch{}
		if cmd.Has('p') {
			v := cmd.Arg('p')
			patch.Password = &v
		}
		if cmd.Has('n') {
			v := cmd.Arg('n')
			patch.Name = &v
		}
		if cmd.Has('m') {
			v := cmd.Arg('m')
			patch.Email = &v
		}
		if cmd.Has('g') {
			v, _ := strconv.Atoi(cmd.Arg('g'))
			patch.Privilege = &v
		}
		user, ok := users.ModifyProfile(cmd.Arg('c'), cmd.Arg('u'), patch)
		if !ok {
			printResult(false)
			return
		}
		fmt.Printf("%s %s %s %d\n", user.Username.String(), user.Name.String(), user.Email.String(), user.Privilege)
	default:
		fmt.Printf("-1 unknown command: %s\n", cmd.Name)
	}
}

func printResult(ok bool) {
	if ok {
		fmt.Println("0")
	} else {
		fmt.Println("-1")
	}
}
