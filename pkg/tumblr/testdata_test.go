package tumblr

const samplePage = `<?xml version="1.0" encoding="UTF-8"?>
<tumblr version="1.0">
  <tumblelog name="staff" title="Staff"/>
  <posts start="0" total="3">
    <post id="101" type="Photo" url="https://staff.tumblr.com/post/101">
      <photo-caption>first</photo-caption>
      <photo-url max-width="1280">https://64.media.tumblr.com/abc/tumblr_a_1280.jpg</photo-url>
      <photo-url max-width="500">https://64.media.tumblr.com/abc/tumblr_a_500.jpg</photo-url>
    </post>
    <post id="102" type="photo" reblogged-from-name="other">
      <photo-url max-width="1280">https://64.media.tumblr.com/def/tumblr_b_1280.jpg</photo-url>
      <photoset>
        <photo offset="o1"><photo-url max-width="1280">https://64.media.tumblr.com/s/one.jpg</photo-url></photo>
        <photo offset="o2"><photo-url max-width="1280">https://64.media.tumblr.com/s/two.jpg</photo-url></photo>
      </photoset>
    </post>
    <post id="103">
      <regular-body>no type here</regular-body>
    </post>
  </posts>
</tumblr>`
