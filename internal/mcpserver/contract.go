package mcpserver

// NoteFormatContract describes how notekeep interprets a note so that LLM
// consumers can write bodies that tag, link and track tasks as intended.
const NoteFormatContract = `# notekeep Note Format Contract

A note is a title plus a plain-text body. There is no frontmatter: metadata
is derived from the text every time the note is saved.

## Tags

- ` + "`" + `#word` + "`" + ` anywhere in the body adds the tag ` + "`" + `word` + "`" + ` (lower-cased).
  Tag characters are letters, digits, ` + "`" + `_` + "`" + ` and ` + "`" + `-` + "`" + `.
- Every word of the title with at least two characters also becomes a tag.
- Tags are replaced on each save; removing ` + "`" + `#word` + "`" + ` removes the tag.

## Links

- ` + "`" + `[[Other note title]]` + "`" + ` links to the first note whose title matches,
  ignoring case. Unknown titles are ignored; a note never links to itself.
- Use get_backlinks to find notes linking to a given note.

## Tasks

- Lines starting with ` + "`" + `- [ ] ` + "`" + ` are open tasks, ` + "`" + `- [x] ` + "`" + ` done tasks.
  Search with ` + "`" + `has:unchecked` + "`" + ` or ` + "`" + `has:checked` + "`" + `.

## History

- Each save of an existing note stores the previous title and body as a
  version. The 30 most recent versions are kept. Use list_versions and
  restore_version to go back.

## Example

` + "```" + `text
Weekly standup 2026-01-20

Attendees: Alice, Bob. #meeting

- [ ] Alice reviews [[Design doc]]
- [x] Bob updates [[Roadmap]]
` + "```" + `
`
