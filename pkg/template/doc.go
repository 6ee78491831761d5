// Package template renders notification titles and messages from strings with
// {name} placeholders.
//
// Rendering is total: a placeholder that has no value in the context is
// replaced by a visible marker such as
//
//	[template error: missing "job_title"]
//
// and the rest of the string is rendered normally. This keeps a malformed
// template from ever blocking a notification.
//
//	title, message := template.Render(template.Template{
//	    Title:   "New job: {job_title}",
//	    Message: "{company_name} is hiring a {job_type} {job_title}.",
//	}, map[string]string{"job_title": "Software Engineer", "company_name": "Tech Corp"})
package template
