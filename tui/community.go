package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"buskport-cli/model"
	"buskport-cli/service"
)

type postsMsg struct {
	category model.PostCategory
	posts    []model.Post
	err      error
}

type postMsg struct {
	post model.Post
	err  error
}

type createPostMsg struct {
	post model.Post
	err  error
}

type postItem struct {
	post model.Post
}

func (p postItem) Title() string {
	return p.post.Title
}

func (p postItem) Description() string {
	parts := []string{p.post.Author()}
	if p.post.CreatedAt != "" {
		day, _, _ := strings.Cut(p.post.CreatedAt, "T")
		parts = append(parts, day)
	}
	return strings.Join(parts, " • ")
}

func (p postItem) FilterValue() string {
	return strings.ToLower(p.post.Title + " " + p.post.Content + " " + p.post.AuthorName)
}

func (m appModel) fetchPostsCmd(category model.PostCategory) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		posts, err := client.GetPosts(context.Background(), category)
		return postsMsg{category: category, posts: posts, err: err}
	}
}

func (m appModel) fetchPostCmd(id int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		post, err := client.GetPost(context.Background(), id)
		return postMsg{post: post, err: err}
	}
}

func (m appModel) applyPosts(msg postsMsg) (tea.Model, tea.Cmd) {
	if msg.category != m.category {
		return m, nil
	}
	if msg.err != nil {
		return m, errCmd(msg.err)
	}
	items := make([]list.Item, 0, len(msg.posts))
	for _, p := range msg.posts {
		items = append(items, postItem{post: p})
	}
	m.postList.Title = "Community · " + m.category.Label()
	m.postList.SetItems(items)
	m.postList.Select(0)
	if m.state == stateLoadingPosts {
		m.state = statePosts
	}
	return m, nil
}

func (m appModel) applyPost(msg postMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Debug("refresh post failed", zap.Error(msg.err))
		if service.IsNotFound(msg.err) && m.state == statePostDetail {
			m.notice = "This post no longer exists."
		}
		return m, nil
	}
	if m.state != statePostDetail || msg.post.PostId != m.selectedPost.PostId {
		return m, nil
	}
	m.selectedPost = msg.post
	m.postView.SetContent(renderPost(msg.post, m.width))
	return m, nil
}

func (m appModel) handlePostKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	if m.state == statePostDetail {
		return m, nil, false
	}
	switch msg.String() {
	case "enter":
		item, ok := m.postList.SelectedItem().(postItem)
		if !ok {
			return m, nil, true
		}
		m.selectedPost = item.post
		m.postView.SetContent(renderPost(item.post, m.width))
		m.postView.GotoTop()
		m.state = statePostDetail
		return m, m.fetchPostCmd(item.post.PostId), true
	case "left", "right":
		step := 1
		if msg.String() == "left" {
			step = len(model.PostCategories) - 1
		}
		m.category = model.PostCategories[(categoryIndex(m.category)+step)%len(model.PostCategories)]
		m.postList.ResetFilter()
		m.state = stateLoadingPosts
		return m, tea.Batch(m.fetchPostsCmd(m.category), m.spinner.Tick), true
	case "ctrl+w":
		m.write.prepare(m.category)
		m.state = stateWritePost
		return m, m.write.setFocus(0), true
	case "ctrl+r":
		m.state = stateLoadingPosts
		return m, tea.Batch(m.fetchPostsCmd(m.category), m.spinner.Tick), true
	}
	return m, nil, false
}

func categoryIndex(c model.PostCategory) int {
	for i, candidate := range model.PostCategories {
		if candidate == c {
			return i
		}
	}
	return 0
}

func renderPost(p model.Post, width int) string {
	title := lipgloss.NewStyle().Bold(true).Render(p.Title)
	meta := []string{p.Category.Label(), p.Author()}
	if p.CreatedAt != "" {
		meta = append(meta, strings.Replace(p.CreatedAt, "T", " ", 1))
	}
	body := p.Content
	if width > 4 {
		body = lipgloss.NewStyle().Width(width - 2).Render(body)
	}
	return title + "\n" + hint(strings.Join(meta, " • ")) + "\n\n" + body
}

type writeForm struct {
	title       textinput.Model
	content     textarea.Model
	category    model.PostCategory
	focus       int
	busy        bool
	status      string
	statusErr   bool
	returnState appState

	width, height int
}

func newWriteForm() writeForm {
	content := textarea.New()
	content.Placeholder = "Write something for other buskers..."
	content.ShowLineNumbers = false
	content.CharLimit = 4000
	content.SetWidth(60)
	content.SetHeight(8)
	return writeForm{
		title:    newInput("Title", 100),
		content:  content,
		category: model.CategoryGeneral,
	}
}

func (f *writeForm) prepare(category model.PostCategory) {
	width, height := f.width, f.height
	*f = newWriteForm()
	f.category = category
	f.returnState = statePosts
	f.resize(width, height)
}

func (f *writeForm) setFocus(index int) tea.Cmd {
	f.focus = index
	if index == 0 {
		f.content.Blur()
		return f.title.Focus()
	}
	f.title.Blur()
	return f.content.Focus()
}

func (f *writeForm) update(msg tea.Msg) tea.Cmd {
	if f.busy {
		return nil
	}
	var cmd tea.Cmd
	if f.focus == 0 {
		f.title, cmd = f.title.Update(msg)
	} else {
		f.content, cmd = f.content.Update(msg)
	}
	return cmd
}

func (f *writeForm) resize(width, height int) {
	f.width, f.height = width, height
	if width > 4 {
		f.content.SetWidth(width - 4)
		f.title.Width = width - 6
	}
	if height > 10 {
		f.content.SetHeight(height - 8)
	}
}

func (f writeForm) request() model.NewPost {
	return model.NewPost{
		Title:    strings.TrimSpace(f.title.Value()),
		Content:  strings.TrimSpace(f.content.Value()),
		Category: f.category,
	}
}

func (f writeForm) view() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("New post in " + f.category.Label()))
	b.WriteString("\n\n")
	titleLabel, contentLabel := plainLabel.Render("  Title"), plainLabel.Render("  Content")
	if f.focus == 0 {
		titleLabel = focusLabel.Render("› Title")
	} else {
		contentLabel = focusLabel.Render("› Content")
	}
	b.WriteString(titleLabel + "\n" + f.title.View() + "\n\n")
	b.WriteString(contentLabel + "\n" + f.content.View())
	switch {
	case f.busy:
		b.WriteString("\n\n" + hint("Publishing..."))
	case f.status != "":
		style := noticeStyle
		if f.statusErr {
			style = errorStyle
		}
		b.WriteString("\n\n" + style.Render(f.status))
	}
	return b.String()
}

func (m appModel) handleWriteKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	f := &m.write
	if f.busy {
		return m, nil, true
	}
	switch msg.String() {
	case "esc":
		m.state = f.returnState
		return m, nil, true
	case "tab", "shift+tab":
		return m, f.setFocus(1 - f.focus), true
	case "ctrl+t":
		f.category = model.PostCategories[(categoryIndex(f.category)+1)%len(model.PostCategories)]
		return m, nil, true
	case "ctrl+o":
		next, cmd := m.openLogin(stateWritePost)
		return next, cmd, true
	case "ctrl+s":
		post := f.request()
		if post.Title == "" || post.Content == "" {
			f.status = "Title and content are required."
			f.statusErr = true
			if post.Title == "" {
				return m, f.setFocus(0), true
			}
			return m, f.setFocus(1), true
		}
		f.busy = true
		f.status = ""
		return m, m.createPostCmd(post), true
	}
	return m, nil, false
}

func (m appModel) createPostCmd(post model.NewPost) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		created, err := client.CreatePost(context.Background(), post)
		if err == nil && created.PostId == 0 {
			created = model.Post{Title: post.Title, Content: post.Content, Category: post.Category}
		}
		return createPostMsg{post: created, err: err}
	}
}

func (m appModel) applyCreatePost(msg createPostMsg) (tea.Model, tea.Cmd) {
	f := &m.write
	f.busy = false
	if msg.err != nil {
		m.logger.Warn("publish post failed", zap.Error(msg.err))
		f.status = service.UserMessage(msg.err)
		if service.IsAuthRequired(msg.err) {
			f.status += " Press ctrl+o to log in."
		}
		f.statusErr = true
		return m, nil
	}
	m.logger.Info("post published", zap.Int("post", msg.post.PostId), zap.String("category", string(msg.post.Category)))
	m.notice = fmt.Sprintf("Published %q.", msg.post.Title)
	if msg.post.Category != "" {
		m.category = msg.post.Category
	}
	f.prepare(m.category)
	m.postList.ResetFilter()
	m.state = stateLoadingPosts
	return m, tea.Batch(m.fetchPostsCmd(m.category), m.spinner.Tick)
}
