package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/relaygw/relay/pkg/client"
)

func main() {
	urlFlag := flag.String("url", "http://localhost:8080", "server url")
	tokenFlag := flag.String("token", "", "server token")
	providerFlag := flag.String("provider", "", "provider name")
	modelFlag := flag.String("model", "", "model id")

	flag.Parse()

	ctx := context.Background()

	options := []client.RequestOption{}

	if *tokenFlag != "" {
		options = append(options, client.WithToken(*tokenFlag))
	}

	c := client.New(*urlFlag, options...)

	model := *modelFlag
	provider := *providerFlag

	if model == "" {
		val, prov, err := selectModel(ctx, c)

		if err != nil {
			panic(err)
		}

		model = val
		provider = prov
	}

	chat(ctx, c, provider, model)
}

func selectModel(ctx context.Context, c *client.Client) (string, string, error) {
	reader := bufio.NewReader(os.Stdin)
	output := os.Stdout

	models, err := c.Models.List(ctx)

	if err != nil {
		return "", "", err
	}

	sort.SliceStable(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})

	for i, m := range models {
		output.WriteString(fmt.Sprintf("%2d) ", i+1))
		output.WriteString(m.Provider + "/" + m.ID)
		output.WriteString("\n")
	}

	output.WriteString(" >  ")
	sel, err := reader.ReadString('\n')

	if err != nil {
		panic(err)
	}

	idx, err := strconv.Atoi(strings.TrimSpace(sel))

	if err != nil {
		panic(err)
	}

	output.WriteString("\n")

	model := models[idx-1]
	return model.ID, model.Provider, nil
}

func chat(ctx context.Context, c *client.Client, provider, model string) {
	reader := bufio.NewReader(os.Stdin)
	output := os.Stdout

	sessionID := ""

LOOP:
	for {
		output.WriteString(">>> ")
		input, err := reader.ReadString('\n')

		if err != nil {
			panic(err)
		}

		input = strings.TrimSpace(input)

		if strings.HasPrefix(input, "/") {
			switch strings.ToLower(input) {
			case "/reset":
				sessionID = ""
				continue LOOP

			case "/session":
				output.WriteString(sessionID + "\n")
				continue LOOP

			default:
				output.WriteString("Unknown command\n")
				continue LOOP
			}
		}

		resp, err := c.Chats.New(ctx, client.ChatRequest{
			SessionID: sessionID,

			Provider: provider,
			Model:    model,

			Message: input,
		})

		if err != nil {
			output.WriteString(err.Error() + "\n")
			continue LOOP
		}

		sessionID = resp.SessionID

		output.WriteString(resp.Content)
		output.WriteString("\n")
		output.WriteString("\n")
	}
}
