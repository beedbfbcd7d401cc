package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_IsArticle(t *testing.T) {
	c, err := NewClassifier("")
	require.NoError(t, err)

	assert.True(t, c.IsArticle("https://help.example.com/support/solutions/articles/48001234567-reset-password"))
	assert.True(t, c.IsArticle("https://help.example.com/support/solutions/articles/42"))
	assert.False(t, c.IsArticle("https://help.example.com/support/solutions"))
	assert.False(t, c.IsArticle("https://help.example.com/support/solutions/folders/123"))
	assert.False(t, c.IsArticle("https://help.example.com/support/solutions/articles/not-a-number"))
}

func TestClassifier_CustomPattern(t *testing.T) {
	c, err := NewClassifier(`/kb/\d+`)
	require.NoError(t, err)

	assert.True(t, c.IsArticle("https://example.com/kb/99"))
	assert.False(t, c.IsArticle("https://example.com/support/solutions/articles/99"))
}

func TestClassifier_BadPattern(t *testing.T) {
	_, err := NewClassifier(`(`)
	assert.Error(t, err)
}

func TestExtract_Article(t *testing.T) {
	page := `<html>
	<head><title>  How do I reset my password?  </title></head>
	<body>
	<nav>Home &gt; Solutions</nav>
	<div id="article-body">
		<p>Open the   settings
		page.</p>
		<div>Click <b>Reset password</b> and follow the email link.</div>
		<script>trackPageView();</script>
	</div>
	</body></html>`

	e := NewExtractor("")
	a := e.Extract(page)
	require.NotNil(t, a)
	assert.Equal(t, "How do I reset my password?", a.Question)
	assert.Equal(t, "Open the settings page.\nClick Reset password and follow the email link.", a.Answer)
}

func TestExtract_MissingContainer(t *testing.T) {
	e := NewExtractor("")
	a := e.Extract(`<html><head><title>Orphan</title></head><body><p>text</p></body></html>`)
	assert.Nil(t, a)
}

func TestExtract_MissingTitle(t *testing.T) {
	e := NewExtractor("")
	a := e.Extract(`<html><body><div id="article-body"><p>text</p></div></body></html>`)
	assert.Nil(t, a)
}

func TestExtract_EmptyBody(t *testing.T) {
	e := NewExtractor("")
	a := e.Extract(`<html><head><title>Empty</title></head><body><div id="article-body">   </div></body></html>`)
	assert.Nil(t, a)
}

func TestExtract_CustomContainer(t *testing.T) {
	e := NewExtractor("faq")
	a := e.Extract(`<html><head><title>Q</title></head><body><div id="faq"><p>A</p></div></body></html>`)
	require.NotNil(t, a)
	assert.Equal(t, "A", a.Answer)
}

func TestLinks(t *testing.T) {
	page := `<html><body>
	<a href="/support/solutions/articles/1">one</a>
	<a href="https://elsewhere.example.org/page">two</a>
	<a>no href</a>
	<a href="">empty</a>
	</body></html>`

	hrefs := Links(page)
	assert.Equal(t, []string{"/support/solutions/articles/1", "https://elsewhere.example.org/page"}, hrefs)
}
