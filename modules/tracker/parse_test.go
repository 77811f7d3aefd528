package tracker

import (
	"testing"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/stretchr/testify/assert"
)

func TestParseTaskRequest(t *testing.T) {
	tests := []struct {
		name string
		text string
		want TaskRequest
	}{
		{
			name: "developer and project manager",
			text: "<@UBOT> <@U1> <@U2> Implement feature",
			want: TaskRequest{DeveloperID: "U1", ProjectManagerID: "U2", Title: "Implement feature"},
		},
		{
			name: "project manager defaults to developer",
			text: "<@UBOT> <@U1> Fix login",
			want: TaskRequest{DeveloperID: "U1", ProjectManagerID: "U1", Title: "Fix login"},
		},
		{
			name: "repeated developer mention is not a project manager",
			text: "<@U1> <@U1> <@U3> pair up",
			want: TaskRequest{DeveloperID: "U1", ProjectManagerID: "U3", Title: "pair up"},
		},
		{
			name: "labelled mentions and multi-line text",
			text: "<@UBOT|tracker> <@U1|alice>   Write   docs\n\nCover the API\nand the CLI\n",
			want: TaskRequest{DeveloperID: "U1", ProjectManagerID: "U1", Title: "Write docs", Description: "Cover the API\nand the CLI"},
		},
		{
			name: "no text uses placeholder",
			text: "<@UBOT> <@U1>",
			want: TaskRequest{DeveloperID: "U1", ProjectManagerID: "U1", Title: domain.DefaultTitle},
		},
		{
			name: "no developer",
			text: "<@UBOT> please help",
			want: TaskRequest{Title: "please help"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTaskRequest(tt.text, "UBOT"))
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text   string
		want   Command
		wantOK bool
	}{
		{"", Command{Verb: VerbList}, true},
		{"list", Command{Verb: VerbList}, true},
		{"LIST pending", Command{Verb: VerbList, Status: domain.StatusPending}, true},
		{"complete", Command{Verb: VerbList, Status: domain.StatusCompleted}, true},
		{"open", Command{Verb: VerbList, Status: domain.StatusPending}, true},
		{"all", Command{Verb: VerbList}, true},
		{"show 12", Command{Verb: VerbShow, TaskID: 12}, true},
		{"show #12", Command{Verb: VerbShow, TaskID: 12}, true},
		{"delete 3", Command{Verb: VerbDelete, TaskID: 3}, true},
		{"help", Command{Verb: VerbHelp}, true},
		{"show", Command{Verb: VerbHelp}, false},
		{"show abc", Command{Verb: VerbHelp}, false},
		{"delete 0", Command{Verb: VerbHelp}, false},
		{"list sideways", Command{Verb: VerbHelp}, false},
		{"frobnicate", Command{Verb: VerbHelp}, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseCommand(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckboxHelpers(t *testing.T) {
	id, ok := ParseCheckboxActionID(CheckboxActionID(17))
	assert.True(t, ok)
	assert.Equal(t, int64(17), id)

	_, ok = ParseCheckboxActionID("task_checkboxes_x")
	assert.False(t, ok)
	_, ok = ParseCheckboxActionID("task_list_page_next")
	assert.False(t, ok)

	dev, pm := CheckboxState(4, []string{"4|pm"})
	assert.False(t, dev)
	assert.True(t, pm)

	dev, pm = CheckboxState(4, []string{"4|developer", "5|pm"})
	assert.True(t, dev)
	assert.False(t, pm)
}
