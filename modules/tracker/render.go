package tracker

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/slack-go/slack"
)

// Interactive identifiers shared with the transport.
const (
	ActionCheckboxPrefix = "task_checkboxes_"
	ActionListPagePrefix = "task_list_page"
	ShortcutFilter       = "task_filter"
	CallbackFilterModal  = "task_filter_modal"

	ActionStatusSelect = "status_select"
	ActionRangeSelect  = "range_select"
	ActionStartDate    = "start_date"
	ActionEndDate      = "end_date"
)

const timestampLayout = "Jan 02, 2006 15:04 UTC"

// CheckboxActionID returns the action id of a task's checkbox group.
func CheckboxActionID(taskID int64) string {
	return ActionCheckboxPrefix + strconv.FormatInt(taskID, 10)
}

// ParseCheckboxActionID extracts the task id from a checkbox action id.
func ParseCheckboxActionID(actionID string) (int64, bool) {
	rest, found := strings.CutPrefix(actionID, ActionCheckboxPrefix)
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func developerValue(taskID int64) string { return fmt.Sprintf("%d|developer", taskID) }
func managerValue(taskID int64) string   { return fmt.Sprintf("%d|pm", taskID) }

// CheckboxState maps the selected option values of a task's checkbox group
// onto the two sign-off flags.
func CheckboxState(taskID int64, selected []string) (developer, projectManager bool) {
	for _, v := range selected {
		switch v {
		case developerValue(taskID):
			developer = true
		case managerValue(taskID):
			projectManager = true
		}
	}
	return developer, projectManager
}

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

func formatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timestampLayout)
}

// TaskText is the notification fallback text of a task message.
func TaskText(t *domain.Task) string {
	return fmt.Sprintf("Task #%d: %s", t.ID, t.Title)
}

func summaryBlocks(t *domain.Task) []slack.Block {
	status := ":hourglass_flowing_sand: Pending"
	if t.CompletedAt != nil {
		status = ":white_check_mark: Completed"
	}
	developerStatus := ":hourglass_flowing_sand: Pending"
	if t.DeveloperChecked {
		developerStatus = ":white_check_mark: Done"
	}
	managerStatus := ":hourglass_flowing_sand: Awaiting review"
	if t.ProjectManagerChecked {
		managerStatus = ":white_check_mark: Approved"
	}

	body := fmt.Sprintf("%s\n*%s*", status, t.Title)
	if t.Description != "" {
		body += "\n" + t.Description
	}

	timeline := []slack.MixedElement{mrkdwn(":calendar: Created " + formatTimestamp(&t.CreatedAt))}
	if t.CompletedAt != nil {
		timeline = append(timeline, mrkdwn(":checkered_flag: Completed "+formatTimestamp(t.CompletedAt)))
	}

	return []slack.Block{
		slack.NewHeaderBlock(plain(fmt.Sprintf("Task #%d", t.ID))),
		slack.NewSectionBlock(mrkdwn(body), nil, nil),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			mrkdwn(fmt.Sprintf("*Developer*\n<@%s>", t.DeveloperID)),
			mrkdwn(fmt.Sprintf("*Project manager*\n<@%s>", t.ProjectManagerID)),
		}, nil),
		slack.NewContextBlock("", timeline...),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			mrkdwn("*Developer status*\n" + developerStatus),
			mrkdwn("*PM status*\n" + managerStatus),
		}, nil),
	}
}

// TaskBlocks renders the interactive message of a task.
func TaskBlocks(t *domain.Task) []slack.Block {
	developer := slack.NewOptionBlockObject(developerValue(t.ID),
		mrkdwn(fmt.Sprintf("Developer complete (<@%s>)", t.DeveloperID)), nil)
	manager := slack.NewOptionBlockObject(managerValue(t.ID),
		mrkdwn(fmt.Sprintf("Project manager approved (<@%s>)", t.ProjectManagerID)), nil)

	checkboxes := slack.NewCheckboxGroupsBlockElement(CheckboxActionID(t.ID), developer, manager)
	if t.DeveloperChecked {
		checkboxes.InitialOptions = append(checkboxes.InitialOptions, developer)
	}
	if t.ProjectManagerChecked {
		checkboxes.InitialOptions = append(checkboxes.InitialOptions, manager)
	}

	blocks := summaryBlocks(t)
	return append(blocks,
		slack.NewContextBlock("", mrkdwn(":white_check_mark: Completion checklist")),
		slack.NewActionBlock(fmt.Sprintf("task-%d-actions", t.ID), checkboxes),
	)
}

// DetailText renders the plain text answer of /tasks show.
func DetailText(t *domain.Task) string {
	status := "Pending"
	if t.CompletedAt != nil {
		status = "Completed"
	}
	lines := []string{
		fmt.Sprintf("*Task #%d: %s*", t.ID, t.Title),
		"Status: " + status,
		fmt.Sprintf("Developer: <@%s>", t.DeveloperID),
		fmt.Sprintf("Project manager: <@%s>", t.ProjectManagerID),
		"Created: " + formatTimestamp(&t.CreatedAt),
	}
	if t.CompletedAt != nil {
		lines = append(lines, "Completed: "+formatTimestamp(t.CompletedAt))
	}
	if t.Description != "" {
		lines = append(lines, "", t.Description)
	}
	return strings.Join(lines, "\n")
}

// PageCount returns the number of pages needed for total tasks.
func PageCount(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// ListBlocks renders one page of a task listing with pagination buttons.
func ListBlocks(tasks []domain.Task, q ListQuery, total int64, pageSize int) []slack.Block {
	pages := PageCount(total, pageSize)
	header := fmt.Sprintf("*%s*  (page %d of %d, %d total)", q.Describe(), q.Page+1, pages, total)
	blocks := []slack.Block{slack.NewSectionBlock(mrkdwn(header), nil, nil), slack.NewDividerBlock()}

	for i := range tasks {
		blocks = append(blocks, summaryBlocks(&tasks[i])...)
		if i < len(tasks)-1 {
			blocks = append(blocks, slack.NewDividerBlock())
		}
	}

	var buttons []slack.BlockElement
	if q.Page > 0 {
		buttons = append(buttons, slack.NewButtonBlockElement(
			ActionListPagePrefix+"_prev", q.WithPage(q.Page-1).Encode(), plain("Previous")))
	}
	if q.Page+1 < pages {
		buttons = append(buttons, slack.NewButtonBlockElement(
			ActionListPagePrefix+"_next", q.WithPage(q.Page+1).Encode(), plain("Next")).WithStyle(slack.StylePrimary))
	}
	if len(buttons) > 0 {
		blocks = append(blocks, slack.NewDividerBlock(), slack.NewActionBlock("task-list-pagination", buttons...))
	}
	return blocks
}

// FilterModal renders the filter modal for form. Date pickers are shown
// only for the custom range.
func FilterModal(form FilterForm) slack.ModalViewRequest {
	statusOptions := []*slack.OptionBlockObject{
		slack.NewOptionBlockObject("any", plain("All"), nil),
		slack.NewOptionBlockObject(string(domain.StatusPending), plain("Pending"), nil),
		slack.NewOptionBlockObject(string(domain.StatusCompleted), plain("Completed"), nil),
	}

	statusSelect := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, plain("Status"), ActionStatusSelect, statusOptions...)
	for _, opt := range statusOptions {
		if s, _ := domain.ParseStatus(opt.Value); s == form.Status {
			statusSelect.InitialOption = opt
		}
	}

	rangeKind := form.Range
	if rangeKind == "" {
		rangeKind = RangeToday
	}
	rangeOptions := make([]*slack.OptionBlockObject, 0, len(Ranges))
	for _, r := range Ranges {
		rangeOptions = append(rangeOptions, slack.NewOptionBlockObject(string(r), plain(r.Label()), nil))
	}
	rangeSelect := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, plain("Date range"), ActionRangeSelect, rangeOptions...)
	for _, opt := range rangeOptions {
		if opt.Value == string(rangeKind) {
			rangeSelect.InitialOption = opt
		}
	}

	rangeInput := slack.NewInputBlock(FieldRange, plain("Created"), nil, rangeSelect)
	rangeInput.DispatchAction = true

	blocks := []slack.Block{
		slack.NewInputBlock(FieldStatus, plain("Status"), nil, statusSelect),
		rangeInput,
	}
	if rangeKind == RangeCustom {
		start := slack.NewDatePickerBlockElement(ActionStartDate)
		start.InitialDate = form.Start
		end := slack.NewDatePickerBlockElement(ActionEndDate)
		end.InitialDate = form.End
		blocks = append(blocks,
			slack.NewInputBlock(FieldStart, plain("From"), nil, start),
			slack.NewInputBlock(FieldEnd, plain("To (inclusive)"), nil, end),
		)
	}

	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		Title:      plain("Filter tasks"),
		Close:      plain("Cancel"),
		Submit:     plain("Show tasks"),
		CallbackID: CallbackFilterModal,
		Blocks:     slack.Blocks{BlockSet: blocks},
	}
}
