package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/passerby/internal/display"
	"github.com/smokyabdulrahman/passerby/internal/prayer"
)

type schoolJSON struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type methodsJSON struct {
	Methods []prayer.Method `json:"methods"`
	Schools []schoolJSON    `json:"schools"`
}

func (a *app) newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List calculation methods and Asr schools",
		Long:  "Print the calculation methods and Asr schools understood by the Al Adhan API.",
		RunE:  a.runMethods,
	}
}

func (a *app) runMethods(cmd *cobra.Command, args []string) error {
	schools := []prayer.School{prayer.Shafi, prayer.Hanafi}

	if a.flags.json {
		out := methodsJSON{Methods: prayer.Methods}
		for _, s := range schools {
			out.Schools = append(out.Schools, schoolJSON{ID: int(s), Name: s.String(), Description: s.Description()})
		}
		return printJSON(cmd, out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, display.Bold("Calculation methods"))
	fmt.Fprintln(w)
	t := display.NewTable([]string{"ID", "Name"})
	for _, m := range prayer.Methods {
		t.AddRow([]string{strconv.Itoa(m.ID), m.Name})
	}
	fmt.Fprint(w, t.Render())

	fmt.Fprintln(w)
	fmt.Fprintln(w, display.Bold("Asr schools"))
	fmt.Fprintln(w)
	t = display.NewTable([]string{"ID", "Name", "Description"})
	for _, s := range schools {
		t.AddRow([]string{strconv.Itoa(int(s)), s.String(), s.Description()})
	}
	fmt.Fprint(w, t.Render())

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use --method <ID> and --school <ID>, or save them with `passerby config set`.")
	return nil
}
